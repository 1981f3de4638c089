package services

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// FavoritesStore persists each chat's favorites as a whole list.
type FavoritesStore interface {
	GetFavorites(ctx context.Context, chatID int64) ([]string, error)
	SetFavorites(ctx context.Context, chatID int64, ids []string) error
}

// FavoritesLedger serializes every read-modify-write cycle per chat, so
// concurrent mutations of one list never lose an update.
type FavoritesLedger struct {
	store FavoritesStore

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewFavoritesLedger(store FavoritesStore) *FavoritesLedger {
	return &FavoritesLedger{
		store: store,
		locks: make(map[int64]*sync.Mutex),
	}
}

func (l *FavoritesLedger) lock(chatID int64) func() {
	l.mu.Lock()
	m, ok := l.locks[chatID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[chatID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Add appends id when absent. added is false when it was already saved.
func (l *FavoritesLedger) Add(ctx context.Context, chatID int64, id string) (bool, error) {
	unlock := l.lock(chatID)
	defer unlock()

	ids, err := l.store.GetFavorites(ctx, chatID)
	if err != nil {
		return false, fmt.Errorf("load favorites for chat %d: %w", chatID, err)
	}
	if slices.Contains(ids, id) {
		return false, nil
	}

	if err := l.store.SetFavorites(ctx, chatID, append(ids, id)); err != nil {
		return false, fmt.Errorf("save favorites for chat %d: %w", chatID, err)
	}
	return true, nil
}

// Remove drops id from the chat's own list. Removing an id the chat never
// saved is a no-op.
func (l *FavoritesLedger) Remove(ctx context.Context, chatID int64, id string) (bool, error) {
	unlock := l.lock(chatID)
	defer unlock()

	ids, err := l.store.GetFavorites(ctx, chatID)
	if err != nil {
		return false, fmt.Errorf("load favorites for chat %d: %w", chatID, err)
	}
	i := slices.Index(ids, id)
	if i < 0 {
		return false, nil
	}

	if err := l.store.SetFavorites(ctx, chatID, slices.Delete(ids, i, i+1)); err != nil {
		return false, fmt.Errorf("save favorites for chat %d: %w", chatID, err)
	}
	return true, nil
}

// List returns the chat's favorites in insertion order.
func (l *FavoritesLedger) List(ctx context.Context, chatID int64) ([]string, error) {
	unlock := l.lock(chatID)
	defer unlock()

	ids, err := l.store.GetFavorites(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("load favorites for chat %d: %w", chatID, err)
	}
	return ids, nil
}

func (l *FavoritesLedger) Contains(ctx context.Context, chatID int64, id string) (bool, error) {
	ids, err := l.List(ctx, chatID)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, id), nil
}

// FavoritesPolicy is the caller's view over a ledger list.
type FavoritesPolicy struct {
	MostRecentFirst bool
	Limit           int
}

var InsertionOrder = FavoritesPolicy{}

func RecentFirst(limit int) FavoritesPolicy {
	return FavoritesPolicy{MostRecentFirst: true, Limit: limit}
}

func (p FavoritesPolicy) Apply(ids []string) []string {
	out := slices.Clone(ids)
	if p.MostRecentFirst {
		slices.Reverse(out)
	}
	if p.Limit > 0 && len(out) > p.Limit {
		out = out[:p.Limit]
	}
	return out
}
