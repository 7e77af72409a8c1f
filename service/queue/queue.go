package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Handler consumes jobs submitted under its key.
type Handler interface {
	Key() string
	Handle(ctx context.Context, payload []byte) error
}

// Job is the envelope stored on the broker.
type Job struct {
	ID         string          `json:"id"`
	Key        string          `json:"key"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// broker is the slice of Redis the queue needs.
type broker interface {
	push(ctx context.Context, list string, data []byte) error
	pop(ctx context.Context, list string, timeout time.Duration) ([]byte, error)
}

type redisBroker struct {
	rdb *redis.Client
}

func (b *redisBroker) push(ctx context.Context, list string, data []byte) error {
	return b.rdb.LPush(ctx, list, data).Err()
}

func (b *redisBroker) pop(ctx context.Context, list string, timeout time.Duration) ([]byte, error) {
	res, err := b.rdb.BRPop(ctx, timeout, list).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// BRPop returns [list, value].
	return []byte(res[1]), nil
}

type Config struct {
	MaxAttempts int
	PopTimeout  time.Duration
}

// Queue is a Redis-backed work queue. Producers call Add and carry on; a
// worker loop delivers each job to the handler registered for its key,
// requeueing failed jobs until MaxAttempts and then parking them on a
// dead-letter list.
type Queue struct {
	broker      broker
	handlers    map[string]Handler
	maxAttempts int
	popTimeout  time.Duration
	listKey     string
	deadKey     string
}

func New(rdb *redis.Client, cfg Config) *Queue {
	return newWithBroker(&redisBroker{rdb: rdb}, cfg)
}

func newWithBroker(b broker, cfg Config) *Queue {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.PopTimeout <= 0 {
		cfg.PopTimeout = 5 * time.Second
	}
	return &Queue{
		broker:      b,
		handlers:    make(map[string]Handler),
		maxAttempts: cfg.MaxAttempts,
		popTimeout:  cfg.PopTimeout,
		listKey:     "queue:jobs",
		deadKey:     "queue:dead",
	}
}

// Register makes a handler available to the worker loop. Not safe to call
// once Run has started.
func (q *Queue) Register(h Handler) {
	q.handlers[h.Key()] = h
}

// Add enqueues a job and returns once the broker has accepted it. The
// payload is marshaled into an immutable snapshot; later changes to the
// source data do not affect the job.
func (q *Queue) Add(ctx context.Context, key string, payload interface{}) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	job := Job{
		ID:         uuid.NewString(),
		Key:        key,
		Payload:    raw,
		EnqueuedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(job)
	if err != nil {
		return "", err
	}
	if err := q.broker.push(ctx, q.listKey, data); err != nil {
		return "", err
	}
	return job.ID, nil
}

// Run consumes jobs until ctx is canceled. Handler errors are retried and
// never stop the loop.
func (q *Queue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		data, err := q.broker.pop(ctx, q.listKey, q.popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("queue: pop error: %v", err)
			time.Sleep(time.Second)
			continue
		}
		if data == nil {
			continue
		}
		q.dispatch(ctx, data)
	}
}

func (q *Queue) dispatch(ctx context.Context, data []byte) {
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		log.Printf("queue: malformed job envelope: %v", err)
		q.deadLetter(ctx, data)
		return
	}

	h, ok := q.handlers[job.Key]
	if !ok {
		log.Printf("queue: no handler registered for key %q (job %s)", job.Key, job.ID)
		q.deadLetter(ctx, data)
		return
	}

	if err := h.Handle(ctx, job.Payload); err != nil {
		job.Attempts++
		if job.Attempts >= q.maxAttempts {
			log.Printf("queue: job %s (%s) failed after %d attempts: %v", job.ID, job.Key, job.Attempts, err)
			if retry, merr := json.Marshal(job); merr == nil {
				q.deadLetter(ctx, retry)
			} else {
				q.deadLetter(ctx, data)
			}
			return
		}
		log.Printf("queue: job %s (%s) failed (attempt %d/%d), requeueing: %v", job.ID, job.Key, job.Attempts, q.maxAttempts, err)
		retry, merr := json.Marshal(job)
		if merr != nil {
			q.deadLetter(ctx, data)
			return
		}
		if perr := q.broker.push(ctx, q.listKey, retry); perr != nil {
			log.Printf("queue: requeue of job %s failed: %v", job.ID, perr)
		}
	}
}

func (q *Queue) deadLetter(ctx context.Context, data []byte) {
	if err := q.broker.push(ctx, q.deadKey, data); err != nil {
		log.Printf("queue: dead-letter push failed: %v", err)
	}
}
