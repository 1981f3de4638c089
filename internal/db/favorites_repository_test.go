package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/ad/go-telegram-recipes/internal/services"
	_ "modernc.org/sqlite"
	"pgregory.net/rapid"
)

func setupFavoritesRepo(t *testing.T) *FavoritesRepository {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "favorites.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	if err := InitSchema(sqlDB); err != nil {
		t.Fatal(err)
	}
	queue := NewDBQueueForTest(sqlDB)
	t.Cleanup(queue.Close)
	return NewFavoritesRepository(queue)
}

func TestFavoritesRepositoryReplacesList(t *testing.T) {
	repo := setupFavoritesRepo(t)
	ctx := context.Background()

	if err := repo.SetFavorites(ctx, 1, []string{"a", "b", "c"}); err != nil {
		t.Fatal(err)
	}
	if err := repo.SetFavorites(ctx, 1, []string{"c", "a", "d"}); err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetFavorites(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []string{"c", "a", "d"}) {
		t.Fatalf("got %v", got)
	}

	entries, err := repo.Entries(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	for i, e := range entries {
		if e.Position != i || e.ChatID != 1 || e.CreatedAt.IsZero() {
			t.Errorf("entry %d = %+v", i, e)
		}
	}
}

func TestFavoritesRepositoryUnknownChatIsEmpty(t *testing.T) {
	repo := setupFavoritesRepo(t)

	got, err := repo.GetFavorites(context.Background(), 404)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty list, got %v", got)
	}
}

func TestFavoritesRepositoryRoundTrip_Property(t *testing.T) {
	repo := setupFavoritesRepo(t)
	ctx := context.Background()

	rapid.Check(t, func(t *rapid.T) {
		chatID := rapid.Int64Range(-1000, 1000).Draw(t, "chat")
		ids := rapid.SliceOfDistinct(rapid.StringMatching(`[0-9]{1,6}`), func(s string) string { return s }).Draw(t, "ids")

		if err := repo.SetFavorites(ctx, chatID, ids); err != nil {
			t.Fatal(err)
		}
		got, err := repo.GetFavorites(ctx, chatID)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(got, ids) {
			t.Fatalf("got %v, want %v", got, ids)
		}
	})
}

func TestFavoritesLedgerOverSQLite(t *testing.T) {
	ledger := services.NewFavoritesLedger(setupFavoritesRepo(t))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ledger.Add(ctx, 1, "X"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	ids, err := ledger.List(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(ids, []string{"X"}) {
		t.Fatalf("got %v", ids)
	}
}
