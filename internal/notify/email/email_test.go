package email

import (
	"errors"
	"testing"
	"time"

	"github.com/minecom/minedash/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	to, subject, body string
}

func newTestService(cfg *config.EmailConfig) (*NotificationService, *[]sent) {
	var outbox []sent
	n := New(cfg)
	n.send = func(to, subject, body string) error {
		outbox = append(outbox, sent{to: to, subject: subject, body: body})
		return nil
	}
	return n, &outbox
}

func TestSendTransactionNotification(t *testing.T) {
	n, outbox := newTestService(&config.EmailConfig{Enabled: true, OperatorEmail: "ops@example.com"})

	err := n.SendTransactionNotification(TransactionNotification{
		Type:              "withdrawal",
		UserID:            12,
		RecommenderID:     "R7",
		IBAN:              "DE89370400440532013000",
		BIC:               "COBADEFFXXX",
		AccountHolderName: "Jane <Doe>",
		SubmittedAt:       time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		DashboardURL:      "https://dash.example.com",
	})
	require.NoError(t, err)
	require.Len(t, *outbox, 1)

	msg := (*outbox)[0]
	assert.Equal(t, "ops@example.com", msg.to)
	assert.Equal(t, "[Minedash] New withdrawal request from R7", msg.subject)
	assert.Contains(t, msg.body, "DE89370400440532013000")
	assert.Contains(t, msg.body, "COBADEFFXXX")
	assert.Contains(t, msg.body, "2024-03-01 09:30 UTC")
	assert.Contains(t, msg.body, "Jane &lt;Doe&gt;", "values are html escaped")
	assert.Contains(t, msg.body, "https://dash.example.com/bank-record")
	assert.NotContains(t, msg.body, "<strong>Bank</strong>", "empty optional fields are omitted")
}

func TestSendTransactionNotification_Skipped(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.EmailConfig
	}{
		{name: "disabled", cfg: &config.EmailConfig{Enabled: false, OperatorEmail: "ops@example.com"}},
		{name: "no operator", cfg: &config.EmailConfig{Enabled: true}},
		{name: "no config", cfg: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, outbox := newTestService(tt.cfg)
			require.NoError(t, n.SendTransactionNotification(TransactionNotification{Type: "deposit"}))
			assert.Empty(t, *outbox)
		})
	}
}

func TestSendTransactionNotification_SendError(t *testing.T) {
	n := New(&config.EmailConfig{Enabled: true, OperatorEmail: "ops@example.com"})
	n.send = func(to, subject, body string) error {
		return errors.New("smtp down")
	}
	assert.EqualError(t, n.SendTransactionNotification(TransactionNotification{Type: "deposit"}), "smtp down")
}
