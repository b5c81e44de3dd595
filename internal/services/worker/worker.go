// Package worker runs QA jobs on a fixed number of goroutines.
//
// Every question spends quota on the one shared API key, so the number of
// generateContent calls in flight is capped no matter how many chats are
// open. The pool sits between the chat manager and the QA pipeline and
// satisfies the same Answer method as the pipeline.
//
// This worker pool pattern is very common in Go:
// 1. Create a buffered channel as a job queue
// 2. Spawn N worker goroutines that read from the channel
// 3. Send jobs to the channel from request handlers
// 4. Each job carries its own reply channel
package worker

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/Shimizu-Technology/docgenie-api/internal/models"
	"github.com/Shimizu-Technology/docgenie-api/internal/services/qa"
)

// MsgQueueFull is the answer when every worker is busy and the queue is full.
const MsgQueueFull = "DocGenie is answering a lot of questions right now. Please try again in a moment."

// MsgCancelled is the answer when the request ends before a worker picks
// the question up.
const MsgCancelled = "The question was cancelled before it could be answered."

// ErrQueueFull is returned by Submit when the queue has no room.
var ErrQueueFull = errors.New("job queue is full; try again later")

// ErrStopped is returned by Submit after Stop.
var ErrStopped = errors.New("worker pool is stopped")

// Answerer is the work the pool runs. *qa.Pipeline satisfies it.
type Answerer interface {
	Answer(ctx context.Context, question string, file models.UploadedFile, apiKey string) string
}

// Job is one question waiting for a worker.
type Job struct {
	ID       string
	Ctx      context.Context
	Question string
	File     models.UploadedFile
	APIKey   string
	reply    chan string // buffered; the worker never blocks on it
}

// Pool manages a pool of worker goroutines.
type Pool struct {
	// Go Pattern: Channels are the backbone of Go concurrency.
	// This buffered channel acts as our job queue.
	jobs    chan Job
	workers int
	next    Answerer

	// Go Pattern: sync.WaitGroup tracks running goroutines.
	// Stop waits on it so in-flight answers finish before shutdown.
	wg sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

// NewPool creates a pool of workers goroutines in front of next.
func NewPool(workers, queueSize int, next Answerer) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	return &Pool{
		jobs:    make(chan Job, queueSize),
		workers: workers,
		next:    next,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	log.Printf("🚀 Starting %d QA workers", p.workers)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop closes the queue and waits for queued and running jobs to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()

	log.Println("⏹️  Stopping QA workers...")
	p.wg.Wait()
	log.Println("✅ All QA workers stopped")
}

// Submit queues a job and returns the channel its answer arrives on.
// It never blocks: a full queue returns ErrQueueFull.
func (p *Pool) Submit(job Job) (<-chan string, error) {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Ctx == nil {
		job.Ctx = context.Background()
	}
	job.reply = make(chan string, 1)

	// The read lock keeps Stop from closing the channel mid-send.
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return nil, ErrStopped
	}

	// Go Pattern: `select` with `default` makes channel operations non-blocking.
	select {
	case p.jobs <- job:
		return job.reply, nil
	default:
		return nil, ErrQueueFull
	}
}

// Answer runs a question through the pool and waits for the result.
// Key problems are reported before queueing; queue problems become chat
// text like every other failure.
func (p *Pool) Answer(ctx context.Context, question string, file models.UploadedFile, apiKey string) string {
	// A bad key is answered here so it never waits behind other jobs.
	if !qa.ValidKey(apiKey) {
		return qa.MsgKeyInvalid
	}

	reply, err := p.Submit(Job{Ctx: ctx, Question: question, File: file, APIKey: apiKey})
	if err != nil {
		log.Printf("⚠️  QA job rejected: %v", err)
		return MsgQueueFull
	}

	select {
	case answer := <-reply:
		return answer
	case <-ctx.Done():
		return MsgCancelled
	}
}

// QueueSize returns the current number of jobs in the queue.
func (p *Pool) QueueSize() int {
	return len(p.jobs)
}

// WorkerCount returns the number of workers.
func (p *Pool) WorkerCount() int {
	return p.workers
}

// worker is the main loop for each worker goroutine.
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	// Go Pattern: `range` over a channel reads values until the channel is closed.
	for job := range p.jobs {
		// Skip questions whose caller already gave up.
		if err := job.Ctx.Err(); err != nil {
			job.reply <- MsgCancelled
			continue
		}

		job.reply <- p.next.Answer(job.Ctx, job.Question, job.File, job.APIKey)
	}

	log.Printf("👷 QA worker %d stopped", id)
}
