package services

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func TestChatQueuePreservesOrder_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		chats := rapid.IntRange(1, 5).Draw(t, "chats")
		perChat := rapid.IntRange(1, 30).Draw(t, "perChat")

		q := NewChatQueue()
		var mu sync.Mutex
		seen := make(map[int64][]int)

		for i := 0; i < perChat; i++ {
			for c := 0; c < chats; c++ {
				chatID, n := int64(c), i
				q.Enqueue(chatID, func() {
					mu.Lock()
					seen[chatID] = append(seen[chatID], n)
					mu.Unlock()
				})
			}
		}
		q.Wait()

		for c := 0; c < chats; c++ {
			got := seen[int64(c)]
			if len(got) != perChat {
				t.Fatalf("chat %d ran %d tasks, want %d", c, len(got), perChat)
			}
			for i, n := range got {
				if n != i {
					t.Fatalf("chat %d ran task %d at position %d", c, n, i)
				}
			}
		}
		if q.Active() != 0 {
			t.Fatalf("expected idle queue, %d workers left", q.Active())
		}
	})
}

func TestChatQueueSecondClickWaitsForFirst(t *testing.T) {
	q := NewChatQueue()
	release := make(chan struct{})
	var order []string
	var mu sync.Mutex
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	q.Enqueue(1, func() {
		<-release
		record("first")
	})
	q.Enqueue(1, func() { record("second") })

	time.Sleep(10 * time.Millisecond)
	mu.Lock()
	if len(order) != 0 {
		t.Fatalf("second task ran before the first finished: %v", order)
	}
	mu.Unlock()

	close(release)
	q.Wait()

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("order = %v", order)
	}
}

func TestChatQueueRunsChatsConcurrently(t *testing.T) {
	q := NewChatQueue()
	block := make(chan struct{})
	var done atomic.Int32

	q.Enqueue(1, func() { <-block })
	q.Enqueue(2, func() { done.Add(1) })

	deadline := time.After(time.Second)
	for done.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("chat 2 was blocked by chat 1")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	close(block)
	q.Wait()
}

func TestChatQueueSurvivesPanic(t *testing.T) {
	q := NewChatQueue()
	var ran atomic.Bool

	q.Enqueue(1, func() { panic("boom") })
	q.Enqueue(1, func() { ran.Store(true) })
	q.Wait()

	if !ran.Load() {
		t.Fatal("task after a panic did not run")
	}
}
