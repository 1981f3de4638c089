package services

import (
	"log"
	"sync"
)

// ChatQueue runs tasks of one chat strictly in arrival order while tasks of
// different chats run concurrently. A chat's worker exits once its backlog
// drains.
type ChatQueue struct {
	mu      sync.Mutex
	pending map[int64][]func()
	wg      sync.WaitGroup
}

func NewChatQueue() *ChatQueue {
	return &ChatQueue{pending: make(map[int64][]func())}
}

func (q *ChatQueue) Enqueue(chatID int64, task func()) {
	q.mu.Lock()
	defer q.mu.Unlock()

	backlog, running := q.pending[chatID]
	q.pending[chatID] = append(backlog, task)
	if running {
		return
	}

	q.wg.Add(1)
	go q.worker(chatID)
}

func (q *ChatQueue) worker(chatID int64) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		backlog := q.pending[chatID]
		if len(backlog) == 0 {
			delete(q.pending, chatID)
			q.mu.Unlock()
			return
		}
		task := backlog[0]
		q.pending[chatID] = backlog[1:]
		q.mu.Unlock()

		q.run(chatID, task)
	}
}

func (q *ChatQueue) run(chatID int64, task func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[QUEUE] task for chat %d panicked: %v", chatID, r)
		}
	}()
	task()
}

// Wait blocks until every queued task has run.
func (q *ChatQueue) Wait() {
	q.wg.Wait()
}

// Active reports how many chats currently have a worker.
func (q *ChatQueue) Active() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
