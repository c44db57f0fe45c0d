package grading

import (
	"sync"
	"time"

	"course_service/internal/domain"
)

// EnqueueResult reports what a single Enqueue call did. Queued is the
// depth observed right after the append, before the drain attempt, so
// callers always see their item counted.
type EnqueueResult struct {
	Queued    int                   `json:"queued"`
	Processed bool                  `json:"processed"`
	Result    *domain.GradingResult `json:"result"`
}

// Queue is an in-memory FIFO of pending submissions with a single
// consumer. Items only advance when an Enqueue or DrainOne call runs;
// there is no background scheduler. The mutex covers the whole
// enqueue-plus-drain critical section so the head cannot be dequeued
// twice and FIFO order holds under concurrent requests.
type Queue struct {
	mu      sync.Mutex
	items   []*domain.Submission
	monitor Monitor
	grader  Grader
}

func NewQueue(monitor Monitor, grader Grader) *Queue {
	return &Queue{monitor: monitor, grader: grader}
}

// Enqueue appends item at the tail and immediately attempts one drain.
// At most one item is processed per call.
func (q *Queue) Enqueue(item *domain.Submission) EnqueueResult {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = append(q.items, item)
	depth := len(q.items)
	result := q.drainOne()
	return EnqueueResult{
		Queued:    depth,
		Processed: result != nil,
		Result:    result,
	}
}

// DrainOne grades the head of the queue if resources allow, returning
// nil when the queue is empty or the host is overloaded. An overloaded
// check leaves the head in place for a later attempt.
func (q *Queue) DrainOne() *domain.GradingResult {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.drainOne()
}

func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// drainOne must be called with q.mu held. The monitor's ~100ms CPU
// sample runs under the lock on purpose: the drain is one critical
// section, and concurrent submitters must tolerate that latency.
func (q *Queue) drainOne() *domain.GradingResult {
	if len(q.items) == 0 {
		return nil
	}
	if q.monitor.IsOverloaded() {
		return nil
	}

	item := q.items[0]
	q.items = q.items[1:]

	score, feedback := q.grader.Grade(item.Payload)
	return &domain.GradingResult{
		Email:          item.Email,
		AssignmentID:   item.AssignmentID,
		Score:          score,
		Feedback:       feedback,
		GradedAt:       time.Now().UTC(),
		SubmissionPath: item.SubmissionPath,
	}
}
