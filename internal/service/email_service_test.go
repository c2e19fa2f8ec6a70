package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/logger"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/models"
)

type fakeSES struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestEmailServiceConsentReceipt(t *testing.T) {
	ses := &fakeSES{}
	svc := newEmailService(ses, "noreply@fitappkid.test", "FitAppKid", logger.Nop())

	parent := &models.Profile{ID: "p", DisplayName: "Alex", Email: "alex@example.com"}
	child := &models.Profile{ID: "c", DisplayName: "Robin <3"}

	err := svc.SendConsentReceipt(context.Background(), parent, child, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, ses.inputs, 1)

	in := ses.inputs[0]
	assert.Equal(t, "FitAppKid <noreply@fitappkid.test>", aws.ToString(in.FromEmailAddress))
	assert.Equal(t, []string{"alex@example.com"}, in.Destination.ToAddresses)
	assert.Contains(t, aws.ToString(in.Content.Simple.Body.Html.Data), "Robin &lt;3")
	assert.Contains(t, aws.ToString(in.Content.Simple.Body.Text.Data), "1 March 2026")
}

func TestEmailServiceSkips(t *testing.T) {
	ses := &fakeSES{}
	svc := newEmailService(ses, "noreply@fitappkid.test", "", logger.Nop())
	child := &models.Profile{DisplayName: "Robin"}

	require.NoError(t, svc.SendConsentReceipt(context.Background(), &models.Profile{DisplayName: "No Email"}, child, time.Now()))
	require.NoError(t, svc.SendAchievementEmail(context.Background(), &models.Profile{Email: "a@example.com"}, child, nil))
	assert.Empty(t, ses.inputs)

	disabled, err := NewEmailService(context.Background(), "us-east-1", "", "", logger.Nop())
	require.NoError(t, err)
	assert.False(t, disabled.IsEnabled())
	require.NoError(t, disabled.SendConsentReceipt(context.Background(), &models.Profile{Email: "a@example.com"}, child, time.Now()))
}

func TestEmailServiceSendFailure(t *testing.T) {
	ses := &fakeSES{err: errors.New("throttled")}
	svc := newEmailService(ses, "noreply@fitappkid.test", "", logger.Nop())

	err := svc.SendAchievementEmail(context.Background(),
		&models.Profile{DisplayName: "Alex", Email: "alex@example.com"},
		&models.Profile{DisplayName: "Robin"},
		[]models.Achievement{{Name: "First Steps"}, {Name: "Century"}})
	require.Error(t, err)
	require.Len(t, ses.inputs, 1)
	assert.Equal(t, "Robin unlocked 2 new achievements!", aws.ToString(ses.inputs[0].Content.Simple.Subject.Data))
}
