package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// SMTPNotifier delivers codes by email. DialAndSend has real network
// latency, so every send runs under a timeout; on deadline the caller
// gets an error instead of a hung request.
type SMTPNotifier struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
	codeTTL  time.Duration
	timeout  time.Duration
	logger   *logrus.Logger
}

func NewSMTPNotifier(host string, port int, user, password, from, fromName string, codeTTL, timeout time.Duration, logger *logrus.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		dialer:   gomail.NewDialer(host, port, user, password),
		from:     from,
		fromName: fromName,
		codeTTL:  codeTTL,
		timeout:  timeout,
		logger:   logger,
	}
}

func (n *SMTPNotifier) Send(ctx context.Context, destination, code, transactionID, displayName string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(n.from, n.fromName))
	m.SetHeader("To", destination)
	m.SetHeader("Subject", "Your payment verification code")
	m.SetBody("text/html", n.emailBody(code, transactionID, displayName))

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- n.dialer.DialAndSend(m)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			n.logger.WithError(err).WithField("transaction_id", transactionID).Error("Failed to send code email")
			return fmt.Errorf("failed to send code email: %w", err)
		}
		return nil
	case <-ctx.Done():
		n.logger.WithField("transaction_id", transactionID).Error("Code email send timed out")
		return fmt.Errorf("sending code email: %w", ctx.Err())
	}
}

func (n *SMTPNotifier) emailBody(code, transactionID, displayName string) string {
	return fmt.Sprintf(`
		<h2>Hello %s,</h2>
		<p>You have requested a verification code for your payment. Use the
		following code to complete your transaction:</p>
		<p style="font-size:2rem;font-weight:bold;letter-spacing:5px;">%s</p>
		<p><small>Valid for %d minutes</small></p>
		<ul>
			<li>Do not share this code with anyone</li>
			<li>Transaction reference: <strong>%s</strong></li>
			<li>If you did not request this, please ignore this email</li>
		</ul>
	`, displayName, code, int(n.codeTTL.Minutes()), transactionID)
}
