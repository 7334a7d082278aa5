package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clagate/clagate/internal/models"
	"github.com/clagate/clagate/internal/repositories"
	"github.com/clagate/clagate/internal/services"
	"github.com/clagate/clagate/pkg/logger"
)

// ReportWorker publishes cached gate results to the hosting platform.
// Platform unavailability is retried with exponential backoff up to a
// bounded number of attempts, then escalated as an operational alert.
// It is never converted into a gate-state change.
type ReportWorker struct {
	*BaseWorker
	jobRepo         *repositories.JobRepository
	snapshotRepo    *repositories.PRSnapshotRepository
	reporterService *services.ReporterService
	maxAttempts     int
	requestTimeout  time.Duration
}

func NewReportWorker(
	workerID string,
	jobRepo *repositories.JobRepository,
	snapshotRepo *repositories.PRSnapshotRepository,
	reporterService *services.ReporterService,
	maxAttempts int,
	requestTimeout time.Duration,
) *ReportWorker {
	return &ReportWorker{
		BaseWorker:      NewBaseWorker(workerID, models.JobTypeReport),
		jobRepo:         jobRepo,
		snapshotRepo:    snapshotRepo,
		reporterService: reporterService,
		maxAttempts:     maxAttempts,
		requestTimeout:  requestTimeout,
	}
}

// Start begins the report worker process
func (w *ReportWorker) Start(ctx context.Context) error {
	w.Running = true
	logger.Infof("Report worker %s started", w.WorkerID)

	for {
		select {
		case <-ctx.Done():
			logger.Infof("Report worker %s stopping due to context cancellation", w.WorkerID)
			return ctx.Err()
		case <-w.StopChan:
			logger.Infof("Report worker %s stopping", w.WorkerID)
			return nil
		default:
			job, err := w.jobRepo.GetNextPendingJob(models.JobTypeReport, w.WorkerID)
			if err != nil {
				logger.Errorf("Report worker %s error getting job: %v", w.WorkerID, err)
				time.Sleep(5 * time.Second)
				continue
			}

			if job == nil {
				// No jobs available, sleep and try again
				time.Sleep(2 * time.Second)
				continue
			}

			w.processJob(ctx, job)
		}
	}
}

func (w *ReportWorker) processJob(ctx context.Context, job *models.Job) {
	if err := w.report(ctx, job); err != nil {
		job.SetError(err.Error())
		job.MarkFailed()
		if updateErr := w.jobRepo.Update(job); updateErr != nil {
			logger.Errorf("Report worker %s error marking job %s as failed: %v", w.WorkerID, job.ID, updateErr)
		}

		// Operational alert: the gate decision stands, only the platform
		// was not told. Never silently dropped.
		logger.WithError(err).WithField("job_id", job.ID).Error("Report delivery exhausted retries")
		return
	}

	job.MarkCompleted()
	if err := w.jobRepo.Update(job); err != nil {
		logger.Errorf("Report worker %s error completing job %s: %v", w.WorkerID, job.ID, err)
	}
}

// report publishes the snapshot's latest cached result, retrying transient
// platform failures. Reloading the snapshot per attempt means a retry
// always reports the newest state, not a stale intermediate one.
func (w *ReportWorker) report(ctx context.Context, job *models.Job) error {
	backoff := time.Second

	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		snapshot, err := w.snapshotRepo.GetByID(job.SnapshotID)
		if err != nil {
			return fmt.Errorf("failed to load snapshot %s: %w", job.SnapshotID, err)
		}

		if snapshot.Archived {
			return nil
		}

		result := snapshot.CachedGateResult()
		if result == nil {
			return fmt.Errorf("snapshot %s has no cached gate result", snapshot.ID)
		}

		callCtx, cancel := context.WithTimeout(ctx, w.requestTimeout)
		err = w.reporterService.Report(callCtx, snapshot, result, snapshot.PrevGateState)
		cancel()

		if err == nil {
			return nil
		}

		if !errors.Is(err, services.ErrPlatformUnavailable) {
			return err
		}

		logger.WithError(err).WithFields(map[string]interface{}{
			"job_id":  job.ID,
			"attempt": attempt,
		}).Warn("Platform unavailable, backing off")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
		}
	}

	return fmt.Errorf("report failed after %d attempts: %w", w.maxAttempts, services.ErrPlatformUnavailable)
}
