package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/2beens/coachai/internal"
	"github.com/2beens/coachai/internal/config"
	"github.com/2beens/coachai/internal/logging"
	"github.com/2beens/coachai/pkg"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	fmt.Println("starting ...")

	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	envFile := flag.String("env-file", ".env", "optional dotenv file with the secrets")
	flag.Parse()

	// secrets may come from a dotenv file in development, real env vars win
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warnf("load env file [%s]: %s", *envFile, err)
	}

	log.Warnf("---->> running in [%s] environment", *env)

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}

	sentryDSN := os.Getenv("SENTRY_DSN")
	logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogsPath,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    cfg.LogFormatJSON,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        sentryDSN,
		SentryServerName: "coachai-service",
	})

	log.Debugf("using port: %d", cfg.Port)
	log.Debugf("using server logs path: [%s]", cfg.LogsPath)
	log.Debugf("using storage backend: [%s]", cfg.StorageBackend)

	versionInfo, err := tryGetLastCommitHash()
	if err != nil {
		log.Tracef("failed to get last commit hash / version info: %s", err)
	} else {
		log.Tracef("running version: %s", versionInfo)
	}

	redisPassword := os.Getenv("COACHAI_REDIS_PASS")
	if redisPassword == "" && cfg.RedisHost != "" {
		log.Errorf("redis password not set. use COACHAI_REDIS_PASS")
	}

	postgresPassword := os.Getenv("COACHAI_POSTGRES_PASS")
	if postgresPassword == "" && cfg.StorageBackend == config.StoragePostgres {
		log.Warnln("postgres password not set. use COACHAI_POSTGRES_PASS")
	}

	inferenceAPIKey := os.Getenv("COACHAI_INFERENCE_API_KEY")
	if inferenceAPIKey == "" && cfg.InferenceURL != "" {
		log.Errorf("inference api key not set. use COACHAI_INFERENCE_API_KEY")
	}

	if otelServiceName := os.Getenv("OTEL_SERVICE_NAME"); otelServiceName == "" {
		log.Warnln("OTEL_SERVICE_NAME env var not set")
	}

	honeycombEnabled := os.Getenv("HONEYCOMB_ENABLED") == "true"
	if honeycombEnabled {
		if honeycombApiKey := os.Getenv("HONEYCOMB_API_KEY"); honeycombApiKey == "" {
			log.Warnln("HONEYCOMB_API_KEY env var not set")
		}
	} else {
		log.Debugln("honeycomb tracing disabled")
	}

	chOsInterrupt := make(chan os.Signal, 1)
	signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.StorageBackend == config.StorageFile {
		dirExists, err := pkg.PathExists(cfg.DataDir, true)
		if err != nil {
			log.Fatalf("check data dir: %s", err)
		}
		if !dirExists {
			log.Printf("data dir [%s] does not exist, it will be created", cfg.DataDir)
		}
	}

	server, err := internal.NewServer(
		ctx,
		internal.NewServerParams{
			Config:                  cfg,
			RedisPassword:           redisPassword,
			PostgresPassword:        postgresPassword,
			InferenceAPIKey:         inferenceAPIKey,
			VersionInfo:             versionInfo,
			HoneycombTracingEnabled: honeycombEnabled,
		},
	)
	if err != nil {
		log.Fatalf("new server: %s", err)
	}

	server.Serve(cfg.Host, cfg.Port)

	receivedSig := <-chOsInterrupt
	log.Warnf("signal [%s] received, shutting down ...", receivedSig)
	cancel()

	server.GracefulShutdown()
}

// tryGetLastCommitHash will try to get the last commit hash
// assumes that the built main executable is in project root
func tryGetLastCommitHash() (string, error) {
	cmd := exec.Command("/usr/bin/git", "rev-parse", "HEAD")
	stdout, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(pkg.BytesToString(stdout)), nil
}
