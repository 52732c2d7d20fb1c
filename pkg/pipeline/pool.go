package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"icpscout/pkg/logger"
	"icpscout/pkg/models"
)

// CandidateJob is one candidate to probe, fetch, score and classify
type CandidateJob struct {
	Candidate models.Candidate
}

// CandidateResult is the terminal outcome for one candidate
type CandidateResult struct {
	Candidate     models.Candidate
	Result        models.FilterResult
	BudgetLimited bool
	Duration      time.Duration
}

// processFunc runs the per-candidate stages and produces its result
type processFunc func(ctx context.Context, cand models.Candidate) CandidateResult

// WorkerPool runs candidate evaluation on a bounded number of workers.
// Each candidate's stages run strictly in order on one worker; across
// candidates nothing is ordered.
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan CandidateJob
	resultQueue chan CandidateResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	process     processFunc
	logger      logger.Logger
}

// NewWorkerPool creates a pool of numWorkers candidate workers
func NewWorkerPool(ctx context.Context, numWorkers int, process processFunc, log logger.Logger) *WorkerPool {
	poolCtx, cancel := context.WithCancel(ctx)

	if log == nil {
		log = logger.GetLogger()
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan CandidateJob, numWorkers*2),
		resultQueue: make(chan CandidateResult, numWorkers),
		ctx:         poolCtx,
		cancel:      cancel,
		process:     process,
		logger:      log,
	}
}

// Start launches the workers
func (wp *WorkerPool) Start() {
	wp.logger.InfoWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop signals no more jobs, waits for workers to drain the queue, then
// closes the result channel
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()
}

// Submit queues a candidate for evaluation
func (wp *WorkerPool) Submit(job CandidateJob) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	}
}

// Results returns the channel of terminal candidate results
func (wp *WorkerPool) Results() <-chan CandidateResult {
	return wp.resultQueue
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	wp.logger.DebugWithFields("Worker started", map[string]interface{}{
		"worker_id": id,
	})

	for job := range wp.jobQueue {
		select {
		case <-wp.ctx.Done():
			wp.logger.DebugWithFields("Worker stopping - context cancelled", map[string]interface{}{
				"worker_id": id,
			})
			return
		default:
		}

		start := time.Now()
		result := wp.process(wp.ctx, job.Candidate)
		result.Duration = time.Since(start)

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			return
		}
	}
}
