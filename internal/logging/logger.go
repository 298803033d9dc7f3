package logging

import (
	"io"
	"os"
	"strings"

	"github.com/2beens/coachai/pkg"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxLogFileSizeMB = 50
	maxLogBackups    = 10
)

type LoggerSetupParams struct {
	LogFileName   string
	LogToStdout   bool
	LogLevel      string
	LogFormatJSON bool
	// Console is where logs go when there is no log file, or when LogToStdout
	// is set. Defaults to os.Stdout.
	Console          io.Writer
	Environment      string
	SentryEnabled    bool
	SentryDSN        string
	SentryServerName string
}

func Setup(params LoggerSetupParams) {
	if params.LogFormatJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	logrus.SetLevel(GetLevel(params.LogLevel))

	console := params.Console
	if console == nil {
		console = os.Stdout
	}
	logrus.SetOutput(output(params.LogFileName, params.LogToStdout, console))

	if params.SentryEnabled {
		setupSentry(params)
	}
}

func output(logFileName string, toConsole bool, console io.Writer) io.Writer {
	if logFileName == "" {
		logrus.Debugln("writing logs only to the console")
		return console
	}

	if !strings.HasSuffix(logFileName, ".log") {
		logFileName += ".log"
	}
	rotating := &lumberjack.Logger{
		Filename:   logFileName,
		MaxSize:    maxLogFileSizeMB,
		MaxBackups: maxLogBackups,
		LocalTime:  false, // false -> use UTC
		Compress:   true,
	}

	if toConsole {
		logrus.Debugln("writing logs to file and the console")
		return pkg.NewFanoutWriter(console, rotating)
	}
	return rotating
}

func setupSentry(params LoggerSetupParams) {
	if params.SentryDSN == "" {
		logrus.Warnln("sentry enabled but no DSN given, skipping it")
		return
	}

	err := sentry.Init(sentry.ClientOptions{
		Environment:      params.Environment,
		Dsn:              params.SentryDSN,
		TracesSampleRate: 1.0,
		ServerName:       params.SentryServerName,
	})
	if err != nil {
		logrus.Errorf("sentry.Init: %s", err)
		return
	}

	logrus.AddHook(NewSentryHook([]logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
	}))
	logrus.Infoln("Sentry set up successfully")
}

// GetLevel parses a level name, anything unknown means trace.
func GetLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return logrus.TraceLevel
	}
	return parsed
}
