package jobs

import (
	"database/sql"

	"github.com/EviewNicks/rental-baju-sub002/internal/audit"
	"github.com/EviewNicks/rental-baju-sub002/internal/config"
	"github.com/EviewNicks/rental-baju-sub002/internal/logger"
)

// JobRunner coordinates the scheduled maintenance jobs
type JobRunner struct {
	db     *sql.DB
	sink   audit.Sink
	config *config.Config
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(db *sql.DB, sink audit.Sink, cfg *config.Config) *JobRunner {
	return &JobRunner{
		db:     db,
		sink:   sink,
		config: cfg,
	}
}

// Config exposes the loaded configuration to the scheduler
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}
