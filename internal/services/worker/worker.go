// Package worker provides a background job processing system using goroutines.
//
// Go Pattern: Goroutines and channels are Go's concurrency primitives.
// A goroutine is like a lightweight thread (thousands are fine), and
// channels are typed pipes for communication between goroutines.
//
// This worker pool pattern is very common in Go:
// 1. Create a buffered channel as a job queue
// 2. Spawn N worker goroutines that read from the channel
// 3. Send jobs to the channel from your HTTP handlers
// 4. Workers process jobs concurrently
//
// Translating a document means one remote call per chunk of every page, so
// it runs here instead of inside the HTTP request.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Shimizu-Technology/pdf-tools-api/internal/models"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/services/pdf"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/services/translate"
)

// JobType identifies what kind of work a job represents.
type JobType string

const (
	JobTranslation JobType = "translation"
)

// jobTimeout bounds a single job, including every translation request.
const jobTimeout = 15 * time.Minute

// Job represents a unit of work to be processed by a worker.
type Job struct {
	ID        string          // The database record ID
	Type      JobType
	Payload   json.RawMessage // Optional; job types that need more than the ID put it here
	CreatedAt time.Time
}

// Store is the persistence the worker needs. *database.DB satisfies it.
type Store interface {
	GetTranslation(ctx context.Context, id string) (*models.Translation, error)
	UpdateTranslation(ctx context.Context, t *models.Translation) error
	GetDocumentWithData(ctx context.Context, id string) (*models.Document, error)
	CreateDocument(ctx context.Context, d *models.Document) error
}

// Notifier sends webhook events. *webhook.Service satisfies it.
type Notifier interface {
	NotifyEvent(ctx context.Context, event string, apiKeyID *string, data interface{})
}

// Config sizes the pool and carries settings for translation jobs.
type Config struct {
	Workers   int
	QueueSize int
	FontPath  string // TrueType font embedded in rebuilt PDFs
	ChunkSize int    // Max bytes per translation request
}

// Pool manages a pool of worker goroutines.
type Pool struct {
	// Go Pattern: Channels are the backbone of Go concurrency.
	// This buffered channel acts as our job queue.
	jobs    chan Job
	workers int

	store       Store
	translators map[string]translate.Translator
	notifier    Notifier
	fontPath    string
	chunkSize   int

	// Swapped out in tests so they don't need a TrueType font.
	rebuild func([]pdf.PageText, pdf.RebuildOptions) ([]byte, error)

	// Go Pattern: sync.WaitGroup tracks running goroutines.
	wg sync.WaitGroup

	// Go Pattern: context.Context with cancel for graceful shutdown.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewPool creates a new worker pool. translators is keyed by backend name
// ("http", "llm"). notifier may be nil.
func NewPool(cfg Config, store Store, translators map[string]translate.Translator, notifier Notifier) *Pool {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = translate.DefaultChunkSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		jobs:        make(chan Job, cfg.QueueSize), // Buffered channel
		workers:     cfg.Workers,
		store:       store,
		translators: translators,
		notifier:    notifier,
		fontPath:    cfg.FontPath,
		chunkSize:   cfg.ChunkSize,
		rebuild:     pdf.Rebuild,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	log.Printf("🚀 Starting %d background workers", p.workers)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i) // Launch worker goroutine
	}
}

// Stop gracefully shuts down all workers. Jobs still in the queue are
// dropped and their records stay "pending".
func (p *Pool) Stop() {
	log.Println("⏹️  Stopping workers...")
	p.cancel()    // Signal all workers to stop
	close(p.jobs) // Close the channel so range loops end
	p.wg.Wait()   // Wait for all workers to finish
	log.Println("✅ All workers stopped")
}

// Submit adds a job to the queue.
// Returns an error if the queue is full (non-blocking).
func (p *Pool) Submit(job Job) error {
	// Go Pattern: `select` with `default` makes channel operations non-blocking.
	// Without default, sending to a full channel would block the HTTP handler.
	select {
	case p.jobs <- job:
		log.Printf("📥 Job queued: %s (type: %s)", job.ID, job.Type)
		return nil
	default:
		return fmt.Errorf("job queue is full; try again later")
	}
}

// SubmitBlocking waits for queue space until ctx is done. The owner key
// uses it to get past a full queue.
func (p *Pool) SubmitBlocking(ctx context.Context, job Job) error {
	select {
	case p.jobs <- job:
		log.Printf("📥 Job queued (blocking): %s (type: %s)", job.ID, job.Type)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("job queue is full: %w", ctx.Err())
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
	defer p.wg.Done() // Signal completion when this worker exits

	log.Printf("👷 Worker %d started", id)

	// Go Pattern: `range` over a channel reads values until the channel is closed.
	for job := range p.jobs {
		select {
		case <-p.ctx.Done():
			log.Printf("👷 Worker %d shutting down", id)
			return
		default:
		}

		log.Printf("👷 Worker %d processing job: %s (type: %s)", id, job.ID, job.Type)

		var err error
		switch job.Type {
		case JobTranslation:
			err = p.processTranslation(job)
		default:
			err = fmt.Errorf("unknown job type: %s", job.Type)
		}

		if err != nil {
			log.Printf("❌ Worker %d: job %s failed: %v", id, job.ID, err)
		} else {
			log.Printf("✅ Worker %d: job %s completed", id, job.ID)
		}
	}

	log.Printf("👷 Worker %d stopped", id)
}
