package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"eventdetail/internal/config"
	appLog "eventdetail/internal/log"
	"eventdetail/internal/metrics"
	"eventdetail/internal/scheduler"
	"eventdetail/internal/screen"
	"eventdetail/internal/store"
	"eventdetail/internal/web"
)

const version = "0.1.0"

type flagConfig struct {
	configPath  string
	envFile     string
	listen      string
	captureOnce bool
}

func main() {
	flags := parseFlags()

	// A missing .env is normal outside development.
	if err := godotenv.Load(flags.envFile); err != nil && !os.IsNotExist(err) {
		appLog.Warn("failed to read env file", "path", flags.envFile, "error", err.Error())
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	appLog.Info("eventdetail starting", "version", version)
	appLog.Info("effective config",
		"listen", conf.Listen,
		"theme", conf.Theme,
		"timezone", conf.Timezone,
		"events_file", conf.EventsFile,
		"assets_dir", conf.AssetsDir,
		"capture_enabled", conf.Capture.Enabled,
		"capture_schedule", conf.Capture.Schedule,
		"basic_auth", conf.BasicAuth != nil,
		"capture_once", flags.captureOnce,
	)

	events, err := store.Open(conf.EventsFile)
	if err != nil {
		appLog.Error("failed to load events", err, "events_file", conf.EventsFile)
		os.Exit(1)
	}

	screens := screen.NewRegistry()
	m := metrics.New()

	srv, err := web.NewServer(conf, events, screens, m)
	if err != nil {
		appLog.Error("failed to build server", err)
		os.Exit(1)
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	preview := &scheduler.PreviewJob{
		Count:     events.Count,
		BaseURL:   conf.BaseURL(),
		OutputDir: conf.Capture.OutputDir,
		Theme:     conf.Theme,
		Width:     conf.Capture.Width,
		Height:    conf.Capture.Height,
		Timeout:   time.Duration(conf.Capture.TimeoutSeconds) * time.Second,
		Metrics:   m,
	}
	if conf.BasicAuth != nil {
		preview.Username = conf.BasicAuth.Username
		preview.Password = conf.BasicAuth.Password
	}

	if flags.captureOnce {
		os.Exit(captureOnce(ctx, cancel, srv, preview))
	}

	sched := scheduler.New()
	purge := &scheduler.PurgeJob{
		Registry: screens,
		MaxIdle:  time.Duration(conf.Sessions.MaxIdleMinutes) * time.Minute,
		Metrics:  m,
	}
	if err := sched.AddPurge(conf.Sessions.PurgeSchedule, purge); err != nil {
		appLog.Error("failed to schedule purge", err)
		os.Exit(1)
	}
	if conf.Capture.Enabled {
		if err := sched.AddPreview(ctx, conf.Capture.Schedule, preview); err != nil {
			appLog.Error("failed to schedule preview capture", err)
			os.Exit(1)
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Start(ctx)
	}()

	if err := web.StartServer(ctx, srv); err != nil {
		appLog.Error("HTTP server failed", err)
		cancel()
		wg.Wait()
		os.Exit(1)
	}

	cancel()
	wg.Wait()
	appLog.Info("eventdetail exiting")
}

// captureOnce serves long enough to capture every preview a single time and
// returns the process exit code.
func captureOnce(ctx context.Context, cancel context.CancelFunc, srv *web.Server, job *scheduler.PreviewJob) int {
	errCh := make(chan error, 1)
	go func() { errCh <- web.StartServer(ctx, srv) }()

	// Let the listener come up before the browser connects.
	select {
	case err := <-errCh:
		appLog.Error("HTTP server failed", err)
		return 1
	case <-time.After(300 * time.Millisecond):
	}

	failed := job.Run(ctx)
	cancel()
	if err := <-errCh; err != nil {
		appLog.Error("HTTP server shutdown failed", err)
	}
	if failed > 0 {
		return 1
	}
	return 0
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/eventdetail/config.yaml", "Path to config file")
	flag.StringVar(&cfg.envFile, "env-file", ".env", "Optional dotenv file loaded before config")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.captureOnce, "capture-once", false, "Capture a preview of every event once and exit")

	flag.Parse()

	return cfg
}
