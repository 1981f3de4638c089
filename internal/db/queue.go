package db

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrQueueClosed = errors.New("db queue closed")

type dbTask struct {
	exec func(*sql.DB) (interface{}, error)
	resp chan dbResult
}

type dbResult struct {
	data interface{}
	err  error
}

// DBQueue funnels every statement through one worker so SQLite never sees
// concurrent writers. Failed tasks are retried with a linear backoff.
type DBQueue struct {
	tasks      chan dbTask
	done       chan struct{}
	db         *sql.DB
	maxRetry   int
	retryDelay time.Duration
}

func NewDBQueue(db *sql.DB) *DBQueue {
	return newDBQueue(db, 100*time.Millisecond)
}

func NewDBQueueForTest(db *sql.DB) *DBQueue {
	return newDBQueue(db, time.Millisecond)
}

func newDBQueue(db *sql.DB, retryDelay time.Duration) *DBQueue {
	q := &DBQueue{
		tasks:      make(chan dbTask, 100),
		done:       make(chan struct{}),
		db:         db,
		maxRetry:   3,
		retryDelay: retryDelay,
	}
	go q.worker()
	return q
}

// Execute runs task on the worker. ctx bounds the wait, not the task itself:
// a task that already started runs to completion.
func (q *DBQueue) Execute(ctx context.Context, task func(*sql.DB) (interface{}, error)) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case <-q.done:
		return nil, ErrQueueClosed
	default:
	}

	resp := make(chan dbResult, 1)
	select {
	case q.tasks <- dbTask{exec: task, resp: resp}:
	case <-q.done:
		return nil, ErrQueueClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case result := <-resp:
		return result.data, result.err
	case <-q.done:
		return nil, ErrQueueClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *DBQueue) worker() {
	for {
		select {
		case task := <-q.tasks:
			task.resp <- q.executeWithRetry(task)
		case <-q.done:
			return
		}
	}
}

func (q *DBQueue) executeWithRetry(task dbTask) dbResult {
	var lastErr error
	for attempt := 0; attempt < q.maxRetry; attempt++ {
		data, err := task.exec(q.db)
		if err == nil {
			return dbResult{data: data}
		}
		lastErr = err
		if attempt < q.maxRetry-1 {
			time.Sleep(time.Duration(attempt+1) * q.retryDelay)
		}
	}
	return dbResult{err: lastErr}
}

func (q *DBQueue) Close() {
	close(q.done)
}

func (q *DBQueue) DB() *sql.DB {
	return q.db
}
