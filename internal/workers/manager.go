package workers

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/clagate/clagate/internal/repositories"
	"github.com/clagate/clagate/internal/services"
	"github.com/clagate/clagate/pkg/logger"
)

// WorkerManager manages multiple workers of different types
type WorkerManager struct {
	workers          []Worker
	jobRepo          *repositories.JobRepository
	snapshotRepo     *repositories.PRSnapshotRepository
	agreementService *services.AgreementService
	gateService      *services.GateService
	reporterService  *services.ReporterService
	reportAttempts   int
	requestTimeout   time.Duration
	prLocks          *KeyedMutex
	wg               sync.WaitGroup
	ctx              context.Context
	cancel           context.CancelFunc
}

// NewWorkerManager creates a new worker manager
func NewWorkerManager(
	jobRepo *repositories.JobRepository,
	snapshotRepo *repositories.PRSnapshotRepository,
	agreementService *services.AgreementService,
	gateService *services.GateService,
	reporterService *services.ReporterService,
	reportAttempts int,
	requestTimeout time.Duration,
) *WorkerManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerManager{
		workers:          make([]Worker, 0),
		jobRepo:          jobRepo,
		snapshotRepo:     snapshotRepo,
		agreementService: agreementService,
		gateService:      gateService,
		reporterService:  reporterService,
		reportAttempts:   reportAttempts,
		requestTimeout:   requestTimeout,
		prLocks:          NewKeyedMutex(),
		ctx:              ctx,
		cancel:           cancel,
	}
}

// StartAll starts all workers based on environment configuration
func (wm *WorkerManager) StartAll() error {
	evalWorkers := wm.getWorkerCount("EVAL_WORKERS", 2)
	reportWorkers := wm.getWorkerCount("REPORT_WORKERS", 2)

	logger.Infof("Starting workers - Evaluate: %d, Report: %d", evalWorkers, reportWorkers)

	for i := 0; i < evalWorkers; i++ {
		worker := NewEvalWorker(
			fmt.Sprintf("eval-%d", i+1),
			wm.jobRepo, wm.snapshotRepo, wm.agreementService, wm.gateService, wm.prLocks,
		)
		wm.workers = append(wm.workers, worker)
		wm.startWorker(worker)
	}

	for i := 0; i < reportWorkers; i++ {
		worker := NewReportWorker(
			fmt.Sprintf("report-%d", i+1),
			wm.jobRepo, wm.snapshotRepo, wm.reporterService, wm.reportAttempts, wm.requestTimeout,
		)
		wm.workers = append(wm.workers, worker)
		wm.startWorker(worker)
	}

	logger.Infof("Started %d total workers", len(wm.workers))
	return nil
}

// StopAll gracefully stops all workers
func (wm *WorkerManager) StopAll() error {
	logger.Info("Stopping all workers...")

	// Cancel the context to signal all workers to stop
	wm.cancel()

	for _, worker := range wm.workers {
		if err := worker.Stop(); err != nil {
			logger.Errorf("Error stopping worker %s: %v", worker.GetWorkerID(), err)
		}
	}

	// Wait for all workers to finish
	wm.wg.Wait()

	logger.Info("All workers stopped")
	return nil
}

// getWorkerCount reads worker count from environment variable with fallback
func (wm *WorkerManager) getWorkerCount(envVar string, defaultValue int) int {
	if value := os.Getenv(envVar); value != "" {
		if count, err := strconv.Atoi(value); err == nil && count > 0 {
			return count
		}
		logger.Warnf("Invalid value for %s, using default: %d", envVar, defaultValue)
	}
	return defaultValue
}

// startWorker starts a single worker in a goroutine
func (wm *WorkerManager) startWorker(worker Worker) {
	wm.wg.Add(1)
	go func() {
		defer wm.wg.Done()
		if err := worker.Start(wm.ctx); err != nil && err != context.Canceled {
			logger.Errorf("Worker %s stopped with error: %v", worker.GetWorkerID(), err)
		}
	}()
}
