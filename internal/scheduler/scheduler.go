package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/brownie/internal/config"
	"github.com/mamadbah2/brownie/internal/domain/models"
	"github.com/mamadbah2/brownie/internal/service/sales"
)

const (
	reportTimeout   = 2 * time.Minute
	recoveryTimeout = 4 * time.Minute
)

// ReportPublisher produces and distributes the daily report.
type ReportPublisher interface {
	PublishDailyReport(ctx context.Context) (models.DailyReport, error)
}

// WorkflowRecoverer finishes interrupted sales.
type WorkflowRecoverer interface {
	Recover(ctx context.Context) (sales.RecoveryResult, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	reports   ReportPublisher
	recoverer WorkflowRecoverer
	cfg       config.ReportingConfig
	logger    *zap.Logger
}

// NewScheduler creates a scheduler whose expressions run in loc. Overlapping
// runs of the same job are skipped.
func NewScheduler(cfg config.ReportingConfig, loc *time.Location, reports ReportPublisher, recoverer WorkflowRecoverer, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	return &Scheduler{
		cron:      c,
		reports:   reports,
		recoverer: recoverer,
		cfg:       cfg,
		logger:    logger,
	}
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler",
		zap.String("report_schedule", s.cfg.CronSchedule),
		zap.String("recovery_schedule", s.cfg.RecoveryCronSchedule))

	if s.reports != nil {
		if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.RunDailyReport); err != nil {
			return fmt.Errorf("schedule daily report %q: %w", s.cfg.CronSchedule, err)
		}
	}
	if s.recoverer != nil {
		if _, err := s.cron.AddFunc(s.cfg.RecoveryCronSchedule, s.RunRecovery); err != nil {
			return fmt.Errorf("schedule sale recovery %q: %w", s.cfg.RecoveryCronSchedule, err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// Entries reports how many jobs are registered.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// RunDailyReport publishes today's report once.
func (s *Scheduler) RunDailyReport() {
	s.logger.Info("generating daily report")
	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	if _, err := s.reports.PublishDailyReport(ctx); err != nil {
		s.logger.Error("failed to publish daily report", zap.Error(err))
	}
}

// RunRecovery runs one recovery sweep over the sale journal.
func (s *Scheduler) RunRecovery() {
	ctx, cancel := context.WithTimeout(context.Background(), recoveryTimeout)
	defer cancel()

	result, err := s.recoverer.Recover(ctx)
	if err != nil {
		s.logger.Error("sale recovery sweep failed", zap.Error(err))
		return
	}
	if result.Resumed > 0 || result.Failed > 0 || result.Skipped > 0 {
		s.logger.Info("sale recovery sweep finished",
			zap.Int("resumed", result.Resumed),
			zap.Int("completed", result.Completed),
			zap.Int("failed", result.Failed),
			zap.Int("skipped", result.Skipped))
	}
}
