package logging

import (
	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

var _ logrus.Hook = (*SentryHook)(nil)

// SentryHook forwards log entries of the given levels to Sentry as events.
type SentryHook struct {
	levels []logrus.Level
	hub    *sentry.Hub
}

func NewSentryHook(levels []logrus.Level) *SentryHook {
	return newSentryHookWithHub(levels, sentry.CurrentHub())
}

func newSentryHookWithHub(levels []logrus.Level, hub *sentry.Hub) *SentryHook {
	return &SentryHook{
		levels: levels,
		hub:    hub,
	}
}

func (h *SentryHook) Levels() []logrus.Level {
	return h.levels
}

func (h *SentryHook) Fire(entry *logrus.Entry) error {
	event := sentry.NewEvent()
	event.Level = sentryLevel(entry.Level)
	event.Message = entry.Message
	event.Timestamp = entry.Time

	if len(entry.Data) > 0 {
		event.Extra = make(map[string]interface{}, len(entry.Data))
		for k, v := range entry.Data {
			if err, ok := v.(error); ok {
				event.Extra[k] = err.Error()
				continue
			}
			event.Extra[k] = v
		}
	}

	h.hub.CaptureEvent(event)
	return nil
}

func sentryLevel(level logrus.Level) sentry.Level {
	switch level {
	case logrus.PanicLevel, logrus.FatalLevel:
		return sentry.LevelFatal
	case logrus.ErrorLevel:
		return sentry.LevelError
	case logrus.WarnLevel:
		return sentry.LevelWarning
	case logrus.InfoLevel:
		return sentry.LevelInfo
	default:
		return sentry.LevelDebug
	}
}
