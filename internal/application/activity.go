package application

import (
	"errors"
	"fmt"
	"io"

	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/bnema/fconline-autospin/internal/ports"
	"github.com/sirupsen/logrus"
)

func orDiscard(log logrus.FieldLogger) logrus.FieldLogger {
	if log != nil {
		return log
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type discardPublisher struct{}

func (discardPublisher) Publish(domain.Message) {}

// reporter stamps activity events for one account.
type reporter struct {
	events  ports.EventPublisher
	clock   ports.Clock
	account domain.AccountID
}

func newReporter(events ports.EventPublisher, clock ports.Clock, account domain.AccountID) reporter {
	if events == nil {
		events = discardPublisher{}
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return reporter{events: events, clock: clock, account: account}
}

func (r reporter) publish(msg domain.Message) {
	r.events.Publish(msg)
}

func (r reporter) emit(severity domain.Severity, category domain.Category, format string, args ...any) {
	message := format
	if len(args) > 0 {
		message = fmt.Sprintf(format, args...)
	}
	r.events.Publish(domain.ActivityEvent{
		Timestamp: r.clock.Now(),
		AccountID: r.account,
		Severity:  severity,
		Category:  category,
		Message:   message,
	})
}

func (r reporter) info(category domain.Category, format string, args ...any) {
	r.emit(domain.SeverityInfo, category, format, args...)
}

func (r reporter) success(category domain.Category, format string, args ...any) {
	r.emit(domain.SeveritySuccess, category, format, args...)
}

func (r reporter) warn(category domain.Category, format string, args ...any) {
	r.emit(domain.SeverityWarning, category, format, args...)
}

func (r reporter) fail(category domain.Category, format string, args ...any) {
	r.emit(domain.SeverityError, category, format, args...)
}

func (r reporter) debug(category domain.Category, format string, args ...any) {
	r.emit(domain.SeverityDebug, category, format, args...)
}

func formatAmount(v int64) string {
	s := fmt.Sprintf("%d", v)
	neg := false
	if v < 0 {
		neg = true
		s = s[1:]
	}
	out := make([]byte, 0, len(s)+len(s)/3)
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}

// reportedError marks a failure whose error-severity event is already on the
// bus, so callers further up do not report it again.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

func markReported(err error) error {
	if err == nil || alreadyReported(err) {
		return err
	}
	return reportedError{err: err}
}

func alreadyReported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}
