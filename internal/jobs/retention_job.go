package jobs

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	"github.com/checknet/backend/internal/services/artifact"
)

// RetentionJob deletes shared artifacts that have aged past their tenant's
// retention window. Withdrawal handles the immediate path; this sweep is the
// batch path.
type RetentionJob struct {
	artifacts *artifact.Store
}

// NewRetentionJob creates a new retention sweep job
func NewRetentionJob(artifacts *artifact.Store) *RetentionJob {
	return &RetentionJob{artifacts: artifacts}
}

// Run executes one retention sweep
func (j *RetentionJob) Run() {
	start := time.Now()
	pruned, err := j.artifacts.PruneExpired(time.Now().UTC())
	if err != nil {
		logrus.WithError(err).Error("artifact retention sweep failed")
		return
	}
	logrus.WithFields(logrus.Fields{
		"pruned":   pruned,
		"duration": time.Since(start).String(),
	}).Info("artifact retention sweep complete")
}

// Schedule registers the nightly sweep at the given UTC hour
func (j *RetentionJob) Schedule(scheduler *gocron.Scheduler, hourUTC int) error {
	_, err := scheduler.Every(1).Day().At(fmt.Sprintf("%02d:00", hourUTC)).Do(j.Run)
	if err != nil {
		return fmt.Errorf("error scheduling retention sweep: %w", err)
	}
	return nil
}
