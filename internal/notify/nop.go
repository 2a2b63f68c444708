package notify

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/ses"
)

// NopSES is the delivery sink used when SES is disabled (local development);
// sends succeed without leaving the process.
type NopSES struct{}

func (NopSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return &ses.SendEmailOutput{}, nil
}
