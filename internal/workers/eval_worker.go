package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/clagate/clagate/internal/models"
	"github.com/clagate/clagate/internal/repositories"
	"github.com/clagate/clagate/internal/services"
	"github.com/clagate/clagate/pkg/logger"
)

// EvalWorker processes gate evaluation jobs. At most one evaluation runs
// per pull request at a time; the shared keyed mutex enforces that across
// all evaluation workers.
type EvalWorker struct {
	*BaseWorker
	jobRepo          *repositories.JobRepository
	snapshotRepo     *repositories.PRSnapshotRepository
	agreementService *services.AgreementService
	gateService      *services.GateService
	prLocks          *KeyedMutex
}

func NewEvalWorker(
	workerID string,
	jobRepo *repositories.JobRepository,
	snapshotRepo *repositories.PRSnapshotRepository,
	agreementService *services.AgreementService,
	gateService *services.GateService,
	prLocks *KeyedMutex,
) *EvalWorker {
	return &EvalWorker{
		BaseWorker:       NewBaseWorker(workerID, models.JobTypeEvaluate),
		jobRepo:          jobRepo,
		snapshotRepo:     snapshotRepo,
		agreementService: agreementService,
		gateService:      gateService,
		prLocks:          prLocks,
	}
}

// Start begins the evaluation worker process
func (w *EvalWorker) Start(ctx context.Context) error {
	w.Running = true
	logger.Infof("Evaluation worker %s started", w.WorkerID)

	for {
		select {
		case <-ctx.Done():
			logger.Infof("Evaluation worker %s stopping due to context cancellation", w.WorkerID)
			return ctx.Err()
		case <-w.StopChan:
			logger.Infof("Evaluation worker %s stopping", w.WorkerID)
			return nil
		default:
			job, err := w.jobRepo.GetNextPendingJob(models.JobTypeEvaluate, w.WorkerID)
			if err != nil {
				logger.Errorf("Evaluation worker %s error getting job: %v", w.WorkerID, err)
				time.Sleep(5 * time.Second)
				continue
			}

			if job == nil {
				// No jobs available, sleep and try again
				time.Sleep(2 * time.Second)
				continue
			}

			w.processJob(job)
		}
	}
}

func (w *EvalWorker) processJob(job *models.Job) {
	if err := w.evaluate(job); err != nil {
		logger.Errorf("Evaluation worker %s error processing job %s: %v", w.WorkerID, job.ID, err)
		job.SetError(err.Error())
		job.MarkFailed()
		if err := w.jobRepo.Update(job); err != nil {
			logger.Errorf("Evaluation worker %s error marking job %s as failed: %v", w.WorkerID, job.ID, err)
		}
		return
	}

	job.MarkCompleted()
	if err := w.jobRepo.Update(job); err != nil {
		logger.Errorf("Evaluation worker %s error completing job %s: %v", w.WorkerID, job.ID, err)
	}
}

// evaluate recomputes the gate for the job's snapshot and schedules a
// report when the outcome needs publishing
func (w *EvalWorker) evaluate(job *models.Job) error {
	w.prLocks.Lock(job.SnapshotID)
	defer w.prLocks.Unlock(job.SnapshotID)

	snapshot, err := w.snapshotRepo.GetByID(job.SnapshotID)
	if err != nil {
		return fmt.Errorf("failed to load snapshot %s: %w", job.SnapshotID, err)
	}

	if snapshot.Archived {
		return nil
	}

	version, err := w.agreementService.CurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to read current agreement version: %w", err)
	}

	result, err := w.gateService.Evaluate(snapshot, version)
	if err != nil {
		// Fail closed: evaluation uncertainty never becomes allowed
		return fmt.Errorf("gate evaluation failed: %w", err)
	}

	previous := snapshot.GateState
	if err := snapshot.SetGateResult(result); err != nil {
		return err
	}
	if err := w.snapshotRepo.Update(snapshot); err != nil {
		return err
	}

	logger.WithFields(map[string]interface{}{
		"snapshot_id": snapshot.ID,
		"pr":          fmt.Sprintf("%s/%s#%d", snapshot.RepoOwner, snapshot.RepoName, snapshot.PRNumber),
		"previous":    previous,
		"state":       result.State,
	}).Info("Gate evaluated")

	return w.jobRepo.Create(models.NewJob(snapshot.ID, models.JobTypeReport))
}
