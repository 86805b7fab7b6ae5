package session

import "context"

// Job is network work that runs off the event loop. The function it returns
// applies the result back on the loop and may be nil.
type Job func(ctx context.Context) (apply func())

// Runner dispatches jobs. Implementations must call apply on the same
// goroutine that drives the Controller.
type Runner interface {
	Go(job Job)
}

// Inline runs each job to completion as soon as it is dispatched.
type Inline struct{}

func (Inline) Go(job Job) {
	if apply := job(context.Background()); apply != nil {
		apply()
	}
}

// Queue holds jobs until the owner takes or runs them. The TUI takes them
// and turns each into a command; tests run them in a chosen order.
type Queue struct {
	jobs []Job
}

func (q *Queue) Go(job Job) { q.jobs = append(q.jobs, job) }

func (q *Queue) Len() int { return len(q.jobs) }

// Take removes and returns every queued job.
func (q *Queue) Take() []Job {
	jobs := q.jobs
	q.jobs = nil
	return jobs
}

// RunNext runs the oldest queued job and applies its result. It reports
// false when the queue is empty.
func (q *Queue) RunNext(ctx context.Context) bool {
	if len(q.jobs) == 0 {
		return false
	}
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	if apply := job(ctx); apply != nil {
		apply()
	}
	return true
}

// Drain runs jobs until none are left, including jobs queued by results.
func (q *Queue) Drain(ctx context.Context) {
	for q.RunNext(ctx) {
	}
}
