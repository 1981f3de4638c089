package services

import (
	"sync"
	"testing"
	"time"

	"github.com/ad/go-telegram-recipes/internal/models"
)

func TestSessionStoreOverwrite(t *testing.T) {
	store := NewSessionStore(time.Hour)

	store.Put(&models.WalkthroughSession{ChatID: 1, RecipeID: "a", Steps: []string{"one", "two"}, CurrentIndex: 1})
	store.Put(&models.WalkthroughSession{ChatID: 1, RecipeID: "b", Steps: []string{"only"}})

	sess, ok := store.Get(1)
	if !ok {
		t.Fatal("expected a session")
	}
	if sess.RecipeID != "b" || len(sess.Steps) != 1 || sess.CurrentIndex != 0 {
		t.Fatalf("session was merged instead of replaced: %+v", sess)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestSessionStoreIsolatesChats(t *testing.T) {
	store := NewSessionStore(0)
	store.Put(&models.WalkthroughSession{ChatID: 1, RecipeID: "a", Steps: []string{"x"}})

	if _, ok := store.Get(2); ok {
		t.Fatal("chat 2 must not see chat 1's session")
	}

	sess, _ := store.Get(1)
	sess.Steps[0] = "changed"
	again, _ := store.Get(1)
	if again.Steps[0] != "x" {
		t.Fatal("Get must return a copy")
	}

	store.Delete(1)
	if _, ok := store.Get(1); ok {
		t.Fatal("session should be gone after Delete")
	}
}

func TestSessionStoreExpiry(t *testing.T) {
	store := NewSessionStore(time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Put(&models.WalkthroughSession{ChatID: 7, RecipeID: "a", Steps: []string{"x"}})
	now = now.Add(30 * time.Second)
	if _, ok := store.Get(7); !ok {
		t.Fatal("session expired too early")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := store.Get(7); ok {
		t.Fatal("session should have expired")
	}
}

func TestSessionStoreConcurrentChats(t *testing.T) {
	store := NewSessionStore(time.Hour)
	var wg sync.WaitGroup
	for i := int64(0); i < 50; i++ {
		wg.Add(1)
		go func(chatID int64) {
			defer wg.Done()
			store.Put(&models.WalkthroughSession{ChatID: chatID, Steps: []string{"s"}})
			if _, ok := store.Get(chatID); !ok {
				t.Errorf("chat %d lost its session", chatID)
			}
		}(i)
	}
	wg.Wait()

	if store.Len() != 50 {
		t.Errorf("Len() = %d, want 50", store.Len())
	}
}
