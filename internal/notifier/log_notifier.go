package notifier

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogNotifier writes the code to the log instead of delivering it.
// Development only; never run this in production.
type LogNotifier struct {
	logger *logrus.Logger
}

func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, destination, code, transactionID, displayName string) error {
	n.logger.WithFields(logrus.Fields{
		"destination":    destination,
		"code":           code,
		"transaction_id": transactionID,
	}).Info("Code generated (logged for development)")
	return nil
}
