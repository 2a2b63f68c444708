package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ethics-review-service/internal/common/config"
	"ethics-review-service/internal/common/logger"
)

type mockSES struct {
	mu       sync.Mutex
	inputs   []*ses.SendEmailInput
	failures int
}

func (m *mockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return nil, errors.New("throttled")
	}
	m.inputs = append(m.inputs, params)
	return &ses.SendEmailOutput{}, nil
}

func (m *mockSES) sent() []*ses.SendEmailInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*ses.SendEmailInput(nil), m.inputs...)
}

type mockSNS struct {
	mu     sync.Mutex
	inputs []*sns.PublishInput
}

func (m *mockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = append(m.inputs, params)
	return &sns.PublishOutput{}, nil
}

type staticDirectory struct {
	applicant string
	committee string
	err       error
}

func (d *staticDirectory) ApplicantEmail(ctx context.Context, applicationID string) (string, error) {
	return d.applicant, d.err
}

func (d *staticDirectory) CommitteeEmail(ctx context.Context, committeeID string) (string, error) {
	return d.committee, d.err
}

func testNotificationConfig() config.NotificationConfig {
	return config.NotificationConfig{
		QueueSize:    8,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
		OfficeEmail:  "ethics-office@example.edu",
	}
}

func TestEmailDispatcher_DeliversToApplicant(t *testing.T) {
	sesClient := &mockSES{}
	directory := &staticDirectory{applicant: "pi@example.edu"}
	d := NewEmailDispatcher(testNotificationConfig(), config.SNSConfig{}, "no-reply@example.edu", sesClient, nil, directory, logger.NewNoOpLogger())

	err := d.Dispatch(context.Background(), Event{
		ID:            "evt-1",
		Kind:          KindApplicationSubmitted,
		ApplicationID: "app-1",
	})
	require.NoError(t, err)
	d.Close()

	sent := sesClient.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"pi@example.edu"}, sent[0].Destination.ToAddresses)
	assert.Contains(t, *sent[0].Message.Subject.Data, "app-1")
	assert.Equal(t, "no-reply@example.edu", *sent[0].Source)
}

func TestEmailDispatcher_CommitteeAssignmentGoesToCommittee(t *testing.T) {
	sesClient := &mockSES{}
	directory := &staticDirectory{applicant: "pi@example.edu", committee: "erc@example.edu"}
	d := NewEmailDispatcher(testNotificationConfig(), config.SNSConfig{}, "no-reply@example.edu", sesClient, nil, directory, logger.NewNoOpLogger())

	dueDate := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, d.Dispatch(context.Background(), Event{
		ID:            "evt-1",
		Kind:          KindCommitteeAssigned,
		ApplicationID: "app-1",
		CommitteeID:   "erc-main",
		DueDate:       &dueDate,
	}))
	d.Close()

	sent := sesClient.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"erc@example.edu"}, sent[0].Destination.ToAddresses)
	assert.Contains(t, *sent[0].Message.Body.Text.Data, "erc-main")
	assert.Contains(t, *sent[0].Message.Body.Text.Data, "2025-04-01")
}

func TestEmailDispatcher_RetriesTransientFailures(t *testing.T) {
	sesClient := &mockSES{failures: 2}
	directory := &staticDirectory{applicant: "pi@example.edu"}
	d := NewEmailDispatcher(testNotificationConfig(), config.SNSConfig{}, "no-reply@example.edu", sesClient, nil, directory, logger.NewNoOpLogger())

	require.NoError(t, d.Dispatch(context.Background(), Event{
		ID:            "evt-1",
		Kind:          KindApplicantResubmitted,
		ApplicationID: "app-1",
	}))
	d.Close()

	require.Len(t, sesClient.sent(), 1)
}

func TestEmailDispatcher_ExhaustedRetriesStayInternal(t *testing.T) {
	sesClient := &mockSES{failures: 10}
	directory := &staticDirectory{applicant: "pi@example.edu"}
	d := NewEmailDispatcher(testNotificationConfig(), config.SNSConfig{}, "no-reply@example.edu", sesClient, nil, directory, logger.NewNoOpLogger())

	// Dispatch never surfaces delivery errors to the caller.
	assert.NoError(t, d.Dispatch(context.Background(), Event{
		ID:            "evt-1",
		Kind:          KindApplicationSubmitted,
		ApplicationID: "app-1",
	}))
	d.Close()

	assert.Empty(t, sesClient.sent())
}

func TestEmailDispatcher_DirectoryFailureFallsBackToOffice(t *testing.T) {
	sesClient := &mockSES{}
	directory := &staticDirectory{err: errors.New("lookup failed")}
	d := NewEmailDispatcher(testNotificationConfig(), config.SNSConfig{}, "no-reply@example.edu", sesClient, nil, directory, logger.NewNoOpLogger())

	require.NoError(t, d.Dispatch(context.Background(), Event{
		ID:            "evt-1",
		Kind:          KindApplicantReturned,
		ApplicationID: "app-1",
		Reason:        "missing consent form",
	}))
	d.Close()

	sent := sesClient.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"ethics-office@example.edu"}, sent[0].Destination.ToAddresses)
	assert.Contains(t, *sent[0].Message.Body.Text.Data, "missing consent form")
}

func TestEmailDispatcher_DecisionFansOutToSNS(t *testing.T) {
	sesClient := &mockSES{}
	snsClient := &mockSNS{}
	directory := &staticDirectory{applicant: "pi@example.edu"}
	snsCfg := config.SNSConfig{
		Enabled:            true,
		TopicARN:           "arn:aws:sns:eu-west-1:123456789012:review-decisions",
		DefaultSMSSenderID: "ETHICS",
	}
	d := NewEmailDispatcher(testNotificationConfig(), snsCfg, "no-reply@example.edu", sesClient, snsClient, directory, logger.NewNoOpLogger())

	require.NoError(t, d.Dispatch(context.Background(), Event{
		ID:            "evt-1",
		Kind:          KindDecisionRendered,
		ApplicationID: "app-1",
		Outcome:       "APPROVED",
	}))
	require.NoError(t, d.Dispatch(context.Background(), Event{
		ID:            "evt-2",
		Kind:          KindApplicationSubmitted,
		ApplicationID: "app-2",
	}))
	d.Close()

	assert.Len(t, sesClient.sent(), 2)
	snsClient.mu.Lock()
	defer snsClient.mu.Unlock()
	// Only the decision event fans out over SMS.
	require.Len(t, snsClient.inputs, 1)
	published := snsClient.inputs[0]
	assert.Contains(t, *published.Message, "APPROVED")

	// Publish requires a target; the topic must always be set.
	require.NotNil(t, published.TopicArn)
	assert.Equal(t, snsCfg.TopicARN, *published.TopicArn)
	senderID, ok := published.MessageAttributes["AWS.SNS.SMS.SenderID"]
	require.True(t, ok)
	assert.Equal(t, "ETHICS", *senderID.StringValue)
}

func TestEmailDispatcher_NoSNSPublishWithoutTopic(t *testing.T) {
	sesClient := &mockSES{}
	snsClient := &mockSNS{}
	directory := &staticDirectory{applicant: "pi@example.edu"}
	d := NewEmailDispatcher(testNotificationConfig(), config.SNSConfig{Enabled: true}, "no-reply@example.edu", sesClient, snsClient, directory, logger.NewNoOpLogger())

	require.NoError(t, d.Dispatch(context.Background(), Event{
		ID:            "evt-1",
		Kind:          KindDecisionRendered,
		ApplicationID: "app-1",
		Outcome:       "REJECTED",
	}))
	d.Close()

	assert.Len(t, sesClient.sent(), 1)
	snsClient.mu.Lock()
	defer snsClient.mu.Unlock()
	assert.Empty(t, snsClient.inputs)
}

func TestRenderEvent_UnknownKindFallsBack(t *testing.T) {
	subject, body := renderEvent(Event{Kind: Kind("mystery"), ApplicationID: "app-9"})
	assert.Contains(t, subject, "app-9")
	assert.Contains(t, body, "app-9")
}
