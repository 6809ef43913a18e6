package engine

import (
	"context"
	"log"
	"time"

	"curriculum-engine/internal/domain"
	"curriculum-engine/internal/metrics"
)

// runLoop drives one workflow instance until it reaches a terminal status.
// Steps are selected and executed strictly one at a time; the loop is the
// single writer of the instance, and every state change is persisted and
// broadcast before the next selection. The loop never panics outward:
// failure is communicated through the instance's Error field.
func (s *Scheduler) runLoop(ctx context.Context, aw *activeWorkflow) {
	for {
		aw.mu.Lock()
		if aw.inst.IsFinished() {
			// Stop already persisted the terminal snapshot.
			aw.mu.Unlock()
			return
		}

		step := aw.inst.NextRunnableStep()
		if step == nil {
			snapshot := s.finalize(aw)
			aw.mu.Unlock()
			s.persistAndBroadcast(ctx, aw, snapshot)
			s.remove(snapshot.ID)
			metrics.WorkflowsFinished.WithLabelValues(snapshot.Kind, string(snapshot.Status)).Inc()
			metrics.ActiveWorkflows.Dec()
			log.Printf("Scheduler: workflow %s finished with status %s", snapshot.ID, snapshot.Status)
			return
		}

		// Mark the step running before releasing the lock; the payload is
		// assembled from dependency results that can no longer change.
		now := time.Now()
		step.Status = domain.StepRunning
		step.StartedAt = &now
		step.EndedAt = nil
		step.Error = ""
		aw.inst.CurrentStepID = step.ID
		aw.inst.Touch()
		stepID := step.ID
		workerType := step.WorkerType
		payload := buildPayload(step, aw.inst)
		snapshot := aw.inst.Clone()
		aw.mu.Unlock()

		s.persistAndBroadcast(ctx, aw, snapshot)

		result, invokeErr := s.invoker.Invoke(ctx, workerType, payload)

		aw.mu.Lock()
		if aw.inst.IsFinished() {
			// Cancelled while the worker was in flight; discard the late
			// result rather than apply it.
			aw.mu.Unlock()
			log.Printf("Scheduler: discarding late result for step %s of cancelled workflow %s", stepID, aw.inst.ID)
			return
		}
		cur := aw.inst.StepByID(stepID)
		if cur == nil || cur.Status != domain.StepRunning {
			aw.mu.Unlock()
			continue
		}

		ended := time.Now()
		cur.EndedAt = &ended
		cur.ActualDurationMs = ended.Sub(*cur.StartedAt).Milliseconds()

		var delay time.Duration
		if invokeErr != nil {
			stepErr := &StepExecutionError{StepID: stepID, WorkerType: workerType, Err: invokeErr}
			cur.Error = stepErr.Error()
			if cur.CanRetry() {
				// Eligible for retry: back to PENDING so the selector picks
				// it up again after the backoff delay.
				cur.RetryCount++
				cur.Status = domain.StepPending
				delay = backoffDelay(s.cfg.BaseBackoff, s.cfg.MaxBackoff, cur.RetryCount)
				metrics.StepRetries.WithLabelValues(workerType).Inc()
				log.Printf("Scheduler: step %s of workflow %s failed, retry %d/%d in %s: %v",
					stepID, aw.inst.ID, cur.RetryCount, cur.MaxRetries, delay, invokeErr)
			} else {
				cur.Status = domain.StepFailed
				metrics.StepsExecuted.WithLabelValues(workerType, string(domain.StepFailed)).Inc()
				log.Printf("Scheduler: step %s of workflow %s exhausted retries: %v", stepID, aw.inst.ID, invokeErr)
			}
		} else {
			cur.Status = domain.StepCompleted
			cur.Result = result
			cur.ProgressPercent = 100
			metrics.StepsExecuted.WithLabelValues(workerType, string(domain.StepCompleted)).Inc()
		}

		aw.inst.CurrentStepID = ""
		aw.inst.RecomputeCompletedSteps()
		eta := ended.Add(aw.inst.RemainingEstimate())
		aw.inst.EstimatedCompletionAt = &eta
		aw.inst.Touch()
		snapshot = aw.inst.Clone()
		aw.mu.Unlock()

		s.persistAndBroadcast(ctx, aw, snapshot)

		if delay > 0 {
			select {
			case <-ctx.Done():
				// Stop raced the backoff; the next iteration observes the
				// terminal status and exits.
			case <-time.After(delay):
			}
		}
	}
}

// finalize settles the workflow once no step is runnable. Caller holds
// aw.mu; the returned snapshot is safe to flush outside the lock.
func (s *Scheduler) finalize(aw *activeWorkflow) *domain.WorkflowInstance {
	now := time.Now()
	if aw.inst.AllStepsSatisfied() {
		aw.inst.Status = domain.WorkflowCompleted
		aw.inst.Results = aw.inst.MergeResults()
	} else {
		aw.inst.Status = domain.WorkflowFailed
		if failed := aw.inst.FirstFailedStep(); failed != nil {
			aw.inst.Error = failed.Error
		} else {
			aw.inst.Error = "no runnable step remains"
		}
	}
	aw.inst.CurrentStepID = ""
	aw.inst.CompletedAt = &now
	aw.inst.EstimatedCompletionAt = &now
	aw.inst.RecomputeCompletedSteps()
	aw.inst.Touch()
	return aw.inst.Clone()
}

// backoffDelay computes min(base * 2^(retry-1), limit).
func backoffDelay(base, limit time.Duration, retry int) time.Duration {
	if retry < 1 {
		retry = 1
	}
	delay := base
	for i := 1; i < retry; i++ {
		delay *= 2
		if delay >= limit {
			return limit
		}
	}
	if delay > limit {
		return limit
	}
	return delay
}
