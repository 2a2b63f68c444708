package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"ethics-review-service/internal/common/config"
	stderrors "ethics-review-service/internal/common/errors"
	"ethics-review-service/internal/common/logger"
	"ethics-review-service/internal/common/metrics"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SESService and SNSService mirror the AWS client surfaces we use so tests
// can substitute mocks.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// RecipientDirectory resolves delivery addresses for the parties involved in
// a transition. Contact data lives with the stores, not the adapter.
type RecipientDirectory interface {
	ApplicantEmail(ctx context.Context, applicationID string) (string, error)
	CommitteeEmail(ctx context.Context, committeeID string) (string, error)
}

// EmailDispatcher sends transition notifications over SES, with optional SNS
// SMS fan-out. Events are queued and delivered out of band so dispatch never
// holds the application's lock; failed sends are retried with backoff and
// only logged when retries are exhausted.
type EmailDispatcher struct {
	cfg       config.NotificationConfig
	snsCfg    config.SNSConfig
	fromEmail string
	sesClient SESService
	snsClient SNSService
	directory RecipientDirectory
	logger    logger.Logger

	queue chan Event
	wg    sync.WaitGroup
	once  sync.Once
}

func NewEmailDispatcher(cfg config.NotificationConfig, snsCfg config.SNSConfig, fromEmail string, sesClient SESService, snsClient SNSService, directory RecipientDirectory, log logger.Logger) *EmailDispatcher {
	d := &EmailDispatcher{
		cfg:       cfg,
		snsCfg:    snsCfg,
		fromEmail: fromEmail,
		sesClient: sesClient,
		snsClient: snsClient,
		directory: directory,
		logger:    log.WithFields(map[string]interface{}{"component": "notify"}),
		queue:     make(chan Event, cfg.QueueSize),
	}

	d.wg.Add(1)
	go d.deliverLoop()

	return d
}

// Dispatch enqueues the event for out-of-band delivery. When the queue is
// full the event is delivered inline so the at-least-once attempt still
// happens; the error, if any, stays inside the adapter.
func (d *EmailDispatcher) Dispatch(ctx context.Context, event Event) error {
	select {
	case d.queue <- event:
		return nil
	default:
		d.logger.Warn("notification queue full, delivering inline", map[string]interface{}{
			"eventId": event.ID,
			"kind":    string(event.Kind),
		})
		d.deliver(ctx, event)
		return nil
	}
}

// Close drains the queue and stops the delivery worker.
func (d *EmailDispatcher) Close() {
	d.once.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}

func (d *EmailDispatcher) deliverLoop() {
	defer d.wg.Done()
	for event := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		d.deliver(ctx, event)
		cancel()
	}
}

func (d *EmailDispatcher) deliver(ctx context.Context, event Event) {
	var lastErr error
	backoff := d.cfg.RetryBackoff

	for attempt := 0; attempt <= d.cfg.MaxRetries; attempt++ {
		lastErr = d.send(ctx, event)
		if lastErr == nil {
			metrics.NotificationsDispatched.WithLabelValues(string(event.Kind), "sent").Inc()
			return
		}
		if attempt == d.cfg.MaxRetries {
			break
		}
		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			lastErr = ctx.Err()
			attempt = d.cfg.MaxRetries
		}
	}

	metrics.NotificationsDispatched.WithLabelValues(string(event.Kind), "failed").Inc()
	sendErr := stderrors.NewNotificationSendFailedError(string(event.Kind), lastErr)
	d.logger.WithError(sendErr).Error("notification delivery failed after retries", map[string]interface{}{
		"eventId":       event.ID,
		"applicationId": event.ApplicationID,
	})
}

func (d *EmailDispatcher) send(ctx context.Context, event Event) error {
	recipient, err := d.resolveRecipient(ctx, event)
	if err != nil {
		return fmt.Errorf("resolve recipient: %w", err)
	}
	if recipient == "" {
		d.logger.Warn("no recipient for event, skipping", map[string]interface{}{
			"eventId": event.ID,
			"kind":    string(event.Kind),
		})
		return nil
	}

	subject, body := renderEvent(event)

	_, err = d.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(d.fromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: []string{recipient},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send: %w", err)
	}

	if d.snsClient != nil && d.snsCfg.TopicARN != "" && event.Kind == KindDecisionRendered {
		input := &sns.PublishInput{
			TopicArn: aws.String(d.snsCfg.TopicARN),
			Message:  aws.String(body),
			Subject:  aws.String(subject),
		}
		if d.snsCfg.DefaultSMSSenderID != "" {
			input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
				"AWS.SNS.SMS.SenderID": {
					DataType:    aws.String("String"),
					StringValue: aws.String(d.snsCfg.DefaultSMSSenderID),
				},
			}
		}
		if _, snsErr := d.snsClient.Publish(ctx, input); snsErr != nil {
			// SMS is secondary; email already went out.
			d.logger.WithError(snsErr).Warn("sns publish failed", map[string]interface{}{
				"eventId": event.ID,
			})
		}
	}

	return nil
}

// resolveRecipient picks the addressed party per event kind: committees for
// assignments, the applicant for everything else. The office inbox is the
// fallback when the directory cannot resolve an address.
func (d *EmailDispatcher) resolveRecipient(ctx context.Context, event Event) (string, error) {
	if event.Kind == KindCommitteeAssigned && event.CommitteeID != "" {
		email, err := d.directory.CommitteeEmail(ctx, event.CommitteeID)
		if err == nil && email != "" {
			return email, nil
		}
		return d.cfg.OfficeEmail, nil
	}

	email, err := d.directory.ApplicantEmail(ctx, event.ApplicationID)
	if err != nil {
		return d.cfg.OfficeEmail, nil
	}
	return email, nil
}

var eventTemplates = map[Kind]struct {
	subject string
	body    string
}{
	KindApplicationSubmitted: {
		subject: "Application {{applicationId}} received",
		body:    "Your research-ethics application {{applicationId}} has been received and queued for document verification.",
	},
	KindApplicantReturned: {
		subject: "Application {{applicationId}} returned for resubmission",
		body:    "Your application {{applicationId}} was returned for resubmission. Reason: {{reason}}",
	},
	KindApplicantResubmitted: {
		subject: "Application {{applicationId}} resubmitted",
		body:    "Application {{applicationId}} has been resubmitted and re-entered the review queue.",
	},
	KindCommitteeAssigned: {
		subject: "Application {{applicationId}} assigned for review",
		body:    "Application {{applicationId}} has been assigned to committee {{committeeId}}. Review due {{dueDate}}.",
	},
	KindDecisionRendered: {
		subject: "Decision on application {{applicationId}}",
		body:    "A decision has been rendered on application {{applicationId}}: {{outcome}}.",
	},
}

func renderEvent(event Event) (subject, body string) {
	tmpl, ok := eventTemplates[event.Kind]
	if !ok {
		return fmt.Sprintf("Update on application %s", event.ApplicationID),
			fmt.Sprintf("Application %s was updated.", event.ApplicationID)
	}

	data := map[string]string{
		"applicationId": event.ApplicationID,
		"reason":        event.Reason,
		"committeeId":   event.CommitteeID,
		"outcome":       event.Outcome,
	}
	if event.DueDate != nil {
		data["dueDate"] = event.DueDate.Format("2006-01-02")
	}

	return renderTemplate(tmpl.subject, data), renderTemplate(tmpl.body, data)
}

func renderTemplate(tmpl string, data map[string]string) string {
	out := tmpl
	for k, v := range data {
		out = strings.ReplaceAll(out, "{{"+k+"}}", v)
	}
	return out
}
