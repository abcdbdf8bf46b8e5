package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// replayTimeout bounds a single background replay, downstream I/O
// (notification dispatch, reporting) included.
const replayTimeout = 2 * time.Minute

// executeApproved replays the captured operation exactly once. Fail
// closed: any failure before or during the operation leaves the
// request in PROCESSING for manual intervention — it is never marked
// EXECUTED unless the operation succeeded.
func (e *Engine) executeApproved(ctx context.Context, checker Actor, m Marker, req *Request, hookScript string) (any, error) {
	payload, err := e.registry.Decode(m.PayloadType, req.ProposedData)
	if err != nil {
		e.log.Error("payload reconstruction failed",
			zap.String("request_id", req.ID.Hex()),
			zap.String("payload_type", m.PayloadType),
			zap.Error(err))
		return nil, err
	}

	out, err := e.registry.Invoke(ctx, req.RequestType, payload)
	if err != nil {
		e.log.Error("approved operation failed",
			zap.String("request_id", req.ID.Hex()),
			zap.String("operation", req.RequestType),
			zap.Error(err))
		return nil, err
	}

	now := time.Now()
	update := bson.M{"$set": bson.M{
		"status":            StatusExecuted,
		"approved":          true,
		"approval_username": checker.Username,
		"approved_date":     now,
	}}
	updated, err := e.requests.ApplyDecision(ctx, req.ID, req.NextApprovalIndex, update)
	if err != nil {
		// The operation already ran; losing the status write here is
		// surfaced for the reconciliation sweep rather than retried.
		e.log.Error("failed to finalize executed request",
			zap.String("request_id", req.ID.Hex()),
			zap.Error(err))
		return out, nil
	}

	e.auditLog(ctx, checker, "EXECUTE", m, updated)
	if hookScript != "" {
		e.runHook(&Rule{HookScript: hookScript}, updated)
	}
	e.notifyBesteffort(ctx, req.RequestType, req.RequesterUsername,
		fmt.Sprintf("request %s was approved and executed", req.ID.Hex()))

	e.log.Info("approved operation executed",
		zap.String("request_id", req.ID.Hex()),
		zap.String("operation", req.RequestType),
		zap.String("checker", checker.Username))

	return out, nil
}

// ReplayJob is one deferred replay unit
type ReplayJob func(ctx context.Context)

// ReplayPool is the bounded worker pool for background replays. Sized
// generously because replays may block on downstream I/O. Workers have
// no per-request affinity.
type ReplayPool struct {
	jobs    chan ReplayJob
	workers int
	log     *zap.Logger

	mu       sync.RWMutex
	draining bool

	wg      sync.WaitGroup
	started sync.Once
	stopped sync.Once
}

func NewReplayPool(workers int, log *zap.Logger) *ReplayPool {
	if workers <= 0 {
		workers = 256
	}
	return &ReplayPool{
		jobs:    make(chan ReplayJob, workers*2),
		workers: workers,
		log:     log,
	}
}

// Start launches the workers. Idempotent.
func (p *ReplayPool) Start() {
	p.started.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.run()
		}
		p.log.Info("replay pool started", zap.Int("workers", p.workers))
	})
}

// Stop closes the queue and waits for in-flight replays to finish
func (p *ReplayPool) Stop() {
	p.stopped.Do(func() {
		p.mu.Lock()
		p.draining = true
		p.mu.Unlock()
		close(p.jobs)
		p.wg.Wait()
	})
}

// Submit enqueues a job; blocks when the queue is full rather than
// dropping a replay. A submit racing shutdown is dropped instead of
// panicking on the closed queue; the request stays in PROCESSING and
// the reconciler surfaces it.
func (p *ReplayPool) Submit(job ReplayJob) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.draining {
		p.log.Warn("replay pool stopped, dropping job")
		return
	}
	p.jobs <- job
}

func (p *ReplayPool) run() {
	defer p.wg.Done()
	for job := range p.jobs {
		func() {
			ctx, cancel := context.WithTimeout(context.Background(), replayTimeout)
			defer cancel()
			defer func() {
				if r := recover(); r != nil {
					p.log.Error("replay job panicked", zap.Any("panic", r))
				}
			}()
			job(ctx)
		}()
	}
}
