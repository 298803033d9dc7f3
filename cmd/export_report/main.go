package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/2beens/coachai/internal"
	"github.com/2beens/coachai/internal/calendar"
	"github.com/2beens/coachai/internal/config"
	"github.com/2beens/coachai/internal/gymstats/profile"
	"github.com/2beens/coachai/internal/gymstats/tracker"
	"github.com/2beens/coachai/internal/logging"
	"github.com/2beens/coachai/internal/telemetry/metrics"
	"github.com/2beens/coachai/pkg"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// export_report prints the plain-text progress report of the stored profile.
func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	envFile := flag.String("env-file", ".env", "optional dotenv file with the secrets")
	outPath := flag.String("out", "", "output file path (empty for stdout)")
	force := flag.Bool("force", false, "overwrite the output file if it exists")
	flag.Parse()

	// secrets may come from a dotenv file in development, real env vars win
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warnf("load env file [%s]: %s", *envFile, err)
	}

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
	}

	// the report goes to stdout, keep logs out of it
	logging.Setup(logging.LoggerSetupParams{
		LogFileName: cfg.LogsPath,
		LogLevel:    "warn",
		Console:     os.Stderr,
		Environment: cfg.Environment,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := run(ctx, cfg, *outPath, *force); err != nil {
		log.Fatalf("export report: %s", err)
	}
}

func run(ctx context.Context, cfg *config.Config, outPath string, force bool) (err error) {
	backends, err := internal.OpenBackends(ctx, internal.OpenBackendsParams{
		Config:           cfg,
		RedisPassword:    os.Getenv("COACHAI_REDIS_PASS"),
		PostgresPassword: os.Getenv("COACHAI_POSTGRES_PASS"),
	})
	if err != nil {
		return fmt.Errorf("open backends: %w", err)
	}
	defer backends.Close()

	clock := calendar.SystemClock{}
	t := tracker.New(tracker.Params{
		KV:          backends.KV,
		Engine:      profile.NewEngine(clock, cfg.Location()),
		Clock:       clock,
		Metrics:     metrics.NewManager("export", "report", prometheus.NewRegistry()),
		ProfileID:   cfg.ProfileID,
		ProfileName: cfg.ProfileName,
		ReadOnly:    true,
	})
	if err := t.Load(ctx); err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	var out io.Writer = os.Stdout
	if outPath != "" {
		exists, err := pkg.PathExists(outPath, false)
		if err != nil {
			return fmt.Errorf("check output file: %w", err)
		}
		if exists && !force {
			return fmt.Errorf("output file [%s] exists, use -force to overwrite it", outPath)
		}

		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
		}()
		out = f
	}

	return t.WriteReport(out)
}
