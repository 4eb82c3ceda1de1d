package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"eventdetail/internal/capture"
	appLog "eventdetail/internal/log"
	"eventdetail/internal/metrics"
	"eventdetail/internal/screen"
)

// CaptureFunc matches capture.CaptureScreenPNG; tests swap it out.
type CaptureFunc func(ctx context.Context, opts capture.CaptureOptions) error

// PreviewJob captures a detail-mode preview of every event.
type PreviewJob struct {
	Count     func() int
	BaseURL   string
	OutputDir string
	Theme     string
	Width     int
	Height    int
	Timeout   time.Duration
	// Username and Password are forwarded to the browser when the
	// renderer sits behind basic auth.
	Username string
	Password string
	Capture  CaptureFunc
	Metrics  *metrics.Metrics
}

// Run captures all previews and returns how many failed.
func (j *PreviewJob) Run(ctx context.Context) int {
	captureFn := j.Capture
	if captureFn == nil {
		captureFn = capture.CaptureScreenPNG
	}

	n := j.Count()
	failed := 0
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			return failed + (n - i)
		}
		opts := capture.CaptureOptions{
			URL:        capture.ScreenURL(j.BaseURL, i, 0, "", j.Theme),
			OutputPath: capture.PreviewPath(j.OutputDir, i),
			Width:      j.Width,
			Height:     j.Height,
			Timeout:    j.Timeout,
			Username:   j.Username,
			Password:   j.Password,
		}

		start := time.Now()
		err := captureFn(ctx, opts)
		if j.Metrics != nil {
			j.Metrics.Captured(err == nil, time.Since(start).Seconds())
		}
		if err != nil {
			failed++
			appLog.Error("preview capture failed", err, "index", i, "url", opts.URL)
			continue
		}
		appLog.Debug("preview captured", "index", i, "path", opts.OutputPath)
	}
	appLog.Info("preview capture completed", "count", n, "failed", failed)
	return failed
}

// PurgeJob drops idle viewer screens.
type PurgeJob struct {
	Registry *screen.Registry
	MaxIdle  time.Duration
	Metrics  *metrics.Metrics
}

func (j *PurgeJob) Run() int {
	removed := j.Registry.PurgeIdle(j.MaxIdle)
	if j.Metrics != nil {
		j.Metrics.SetScreens(j.Registry.Len())
	}
	if removed > 0 {
		appLog.Info("idle screens purged", "removed", removed, "remaining", j.Registry.Len())
	}
	return removed
}

// Scheduler runs the periodic jobs on cron schedules.
type Scheduler struct {
	cron *cron.Cron
}

func New() *Scheduler {
	return &Scheduler{cron: cron.New()}
}

// AddPreview registers the preview job on a cron expression.
func (s *Scheduler) AddPreview(ctx context.Context, spec string, job *PreviewJob) error {
	if _, err := s.cron.AddFunc(spec, func() { job.Run(ctx) }); err != nil {
		return fmt.Errorf("scheduler: preview %q: %w", spec, err)
	}
	return nil
}

// AddPurge registers the idle-screen purge job on a cron expression.
func (s *Scheduler) AddPurge(spec string, job *PurgeJob) error {
	if _, err := s.cron.AddFunc(spec, func() { job.Run() }); err != nil {
		return fmt.Errorf("scheduler: purge %q: %w", spec, err)
	}
	return nil
}

func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Start runs the scheduler until ctx is cancelled, then waits for running
// jobs to finish.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	appLog.Info("scheduler started", "jobs", s.Len())
	<-ctx.Done()
	s.Stop()
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	appLog.Info("scheduler stopped")
}
