package logging

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/2beens/coachai/pkg"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"
)

func TestGetLevel(t *testing.T) {
	testCases := map[string]logrus.Level{
		"debug":   logrus.DebugLevel,
		"ERROR":   logrus.ErrorLevel,
		"fatal":   logrus.FatalLevel,
		"Info":    logrus.InfoLevel,
		"trace":   logrus.TraceLevel,
		"warn":    logrus.WarnLevel,
		"":        logrus.TraceLevel,
		"verbose": logrus.TraceLevel,
	}
	for in, want := range testCases {
		assert.Equal(t, want, GetLevel(in), in)
	}
}

func TestSentryHook(t *testing.T) {
	var (
		mutex    sync.Mutex
		captured []*sentry.Event
	)
	client, err := sentry.NewClient(sentry.ClientOptions{
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			mutex.Lock()
			defer mutex.Unlock()
			captured = append(captured, event)
			return nil
		},
	})
	require.NoError(t, err)

	hook := newSentryHookWithHub([]logrus.Level{logrus.ErrorLevel}, sentry.NewHub(client, sentry.NewScope()))
	assert.Equal(t, []logrus.Level{logrus.ErrorLevel}, hook.Levels())

	logger := logrus.New()
	logger.AddHook(hook)
	logger.SetOutput(&discard{})

	logger.Info("not forwarded")
	logger.WithError(errors.New("disk full")).WithField("key", "profile").Error("write profile failed")

	require.Eventually(t, func() bool {
		mutex.Lock()
		defer mutex.Unlock()
		return len(captured) == 1
	}, time.Second, 10*time.Millisecond)

	mutex.Lock()
	defer mutex.Unlock()
	event := captured[0]
	assert.Equal(t, sentry.LevelError, event.Level)
	assert.Equal(t, "write profile failed", event.Message)
	assert.Equal(t, "disk full", event.Extra[logrus.ErrorKey])
	assert.Equal(t, "profile", event.Extra["key"])
}

func TestSentryLevel(t *testing.T) {
	assert.Equal(t, sentry.LevelFatal, sentryLevel(logrus.PanicLevel))
	assert.Equal(t, sentry.LevelFatal, sentryLevel(logrus.FatalLevel))
	assert.Equal(t, sentry.LevelWarning, sentryLevel(logrus.WarnLevel))
	assert.Equal(t, sentry.LevelDebug, sentryLevel(logrus.TraceLevel))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) {
	return len(p), nil
}

func TestOutput(t *testing.T) {
	console := &discard{}

	assert.Equal(t, console, output("", true, console))

	logFile := filepath.Join(t.TempDir(), "coachai")
	rotating, ok := output(logFile, false, console).(*lumberjack.Logger)
	require.True(t, ok)
	assert.Equal(t, logFile+".log", rotating.Filename)
	assert.Equal(t, maxLogBackups, rotating.MaxBackups)

	_, ok = output(logFile+".log", true, console).(*pkg.FanoutWriter)
	assert.True(t, ok)
}
