package logging

import (
	"fmt"
	"log/slog"
)

// StripeLogger routes the remote ledger SDK's leveled logging into slog.
type StripeLogger struct {
	logger *slog.Logger
}

func NewStripeLogger(logger *slog.Logger) *StripeLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &StripeLogger{logger: logger.With("component", "stripe")}
}

func (l *StripeLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}

func (l *StripeLogger) Infof(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}

func (l *StripeLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, v...))
}

func (l *StripeLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}
