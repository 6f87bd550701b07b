// Package scheduler runs historical ingestion on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/btc-dashboard-go/internal/services"
)

// Ingester is satisfied by services.IngestService.
type Ingester interface {
	Run(ctx context.Context) (*services.IngestResult, error)
}

// Scheduler triggers an Ingester on a cron spec. Overlapping runs are skipped.
type Scheduler struct {
	cron     *cron.Cron
	ingester Ingester
	logger   *logrus.Logger

	mu      sync.Mutex
	ctx     context.Context
	lastErr error
	runs    int
}

// New creates a Scheduler. Runs use ctx, so cancelling it aborts an in-flight
// ingestion.
func New(ctx context.Context, ingester Ingester, logger *logrus.Logger) *Scheduler {
	entry := logger.WithField("component", "scheduler")
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.PrintfLogger(entry)),
			cron.SkipIfStillRunning(cron.PrintfLogger(entry)),
		)),
		ingester: ingester,
		logger:   logger,
		ctx:      ctx,
	}
}

// Register adds the ingestion job for spec (standard 5-field or descriptor
// such as "@daily").
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.runJob); err != nil {
		return fmt.Errorf("register ingestion schedule %q: %w", spec, err)
	}
	s.logger.WithFields(logrus.Fields{
		"component": "scheduler",
		"schedule":  spec,
	}).Info("Ingestion scheduled")
	return nil
}

// RunNow executes one ingestion synchronously.
func (s *Scheduler) RunNow() (*services.IngestResult, error) {
	result, err := s.ingester.Run(s.ctx)

	s.mu.Lock()
	s.runs++
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"component": "scheduler",
			"error":     err.Error(),
		}).Error("Ingestion failed")
	}
	return result, err
}

func (s *Scheduler) runJob() {
	_, _ = s.RunNow()
}

// Stats returns the number of completed runs and the last run's error.
func (s *Scheduler) Stats() (runs int, lastErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs, s.lastErr
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.WithField("component", "scheduler").Info("Scheduler started")
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.WithField("component", "scheduler").Info("Scheduler stopped")
}
