package email

import (
	"bytes"
	"crypto/tls"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/charmbracelet/log"
	"github.com/minecom/minedash/internal/config"
	mail "github.com/xhit/go-simple-mail/v2"
)

// NotificationService sends operator emails for submitted transaction forms.
type NotificationService struct {
	config *config.EmailConfig
	send   func(to, subject, body string) error
}

// TransactionNotification contains the data of a transaction request email.
type TransactionNotification struct {
	Type              string
	UserID            int
	RecommenderID     string
	IBAN              string
	BIC               string
	BankName          string
	AccountHolderName string
	SubmittedAt       time.Time
	DashboardURL      string
}

// New creates a new email notification service.
func New(cfg *config.EmailConfig) *NotificationService {
	n := &NotificationService{
		config: cfg,
	}
	n.send = n.sendEmail
	return n
}

// Enabled reports whether notifications are sent at all.
func (n *NotificationService) Enabled() bool {
	return n.config != nil && n.config.Enabled
}

// SendTransactionNotification tells the operator about a new deposit or withdrawal request.
func (n *NotificationService) SendTransactionNotification(notification TransactionNotification) error {
	if !n.Enabled() {
		log.Debug("Email notifications are disabled, skipping notification")
		return nil
	}

	if n.config.OperatorEmail == "" {
		log.Warn("Operator email is empty, skipping notification")
		return nil
	}

	if notification.SubmittedAt.IsZero() {
		notification.SubmittedAt = time.Now()
	}

	subject := fmt.Sprintf("[Minedash] New %s request from %s", notification.Type, notification.RecommenderID)

	body, err := n.generateEmailBody(notification)
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}

	return n.send(n.config.OperatorEmail, subject, body)
}

//go:embed templates/*.html
var templatesFS embed.FS

// generateEmailBody creates the HTML email body.
func (n *NotificationService) generateEmailBody(notification TransactionNotification) (string, error) {
	t, err := template.New("").ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "transaction.html", notification); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// sendEmail sends an email using go-simple-mail library.
func (n *NotificationService) sendEmail(to, subject, body string) error {
	server := mail.NewSMTPClient()
	server.Host = n.config.SMTPHost
	server.Port = n.config.SMTPPort
	server.Username = n.config.Username
	server.Password = n.config.Password

	if n.config.UseSSL {
		server.Encryption = mail.EncryptionSSLTLS
	} else if n.config.UseTLS {
		server.Encryption = mail.EncryptionSTARTTLS
	} else {
		server.Encryption = mail.EncryptionNone
	}

	if n.config.InsecureSkipVerify {
		server.TLSConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	server.KeepAlive = false
	server.ConnectTimeout = 10 * time.Second
	server.SendTimeout = 10 * time.Second

	smtpClient, err := server.Connect()
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() {
		if closeErr := smtpClient.Close(); closeErr != nil {
			log.Warn("Failed to close SMTP client", "error", closeErr)
		}
	}()

	fromName := n.config.FromName
	if fromName == "" {
		fromName = "Minedash"
	}

	email := mail.NewMSG()
	email.SetFrom(fmt.Sprintf("%s <%s>", fromName, n.config.FromEmail))
	email.AddTo(to)
	email.SetSubject(subject)
	email.SetBody(mail.TextHTML, body)

	if email.Error != nil {
		return fmt.Errorf("failed to build email: %w", email.Error)
	}

	if err := email.Send(smtpClient); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Info("Email notification sent successfully", "to", to, "subject", subject)
	return nil
}
