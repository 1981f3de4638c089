package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ad/go-telegram-recipes/internal/models"
)

type FavoritesRepository struct {
	queue *DBQueue
}

func NewFavoritesRepository(queue *DBQueue) *FavoritesRepository {
	return &FavoritesRepository{queue: queue}
}

func (r *FavoritesRepository) GetFavorites(ctx context.Context, chatID int64) ([]string, error) {
	entries, err := r.Entries(ctx, chatID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.RecipeID
	}
	return ids, nil
}

func (r *FavoritesRepository) Entries(ctx context.Context, chatID int64) ([]models.Favorite, error) {
	result, err := r.queue.Execute(ctx, func(db *sql.DB) (interface{}, error) {
		rows, err := db.Query(`
			SELECT chat_id, recipe_id, position, created_at FROM favorites
			WHERE chat_id = ?
			ORDER BY position
		`, chatID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var entries []models.Favorite
		for rows.Next() {
			var f models.Favorite
			if err := rows.Scan(&f.ChatID, &f.RecipeID, &f.Position, &f.CreatedAt); err != nil {
				return nil, err
			}
			entries = append(entries, f)
		}
		return entries, rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("query favorites for chat %d: %w", chatID, err)
	}
	return result.([]models.Favorite), nil
}

// SetFavorites replaces the chat's whole list in one transaction. Rows that
// survive keep their created_at.
func (r *FavoritesRepository) SetFavorites(ctx context.Context, chatID int64, ids []string) error {
	_, err := r.queue.Execute(ctx, func(db *sql.DB) (interface{}, error) {
		tx, err := db.Begin()
		if err != nil {
			return nil, err
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`UPDATE favorites SET position = -1 - position WHERE chat_id = ?`, chatID); err != nil {
			return nil, err
		}
		for i, id := range ids {
			if _, err := tx.Exec(`
				INSERT INTO favorites (chat_id, recipe_id, position) VALUES (?, ?, ?)
				ON CONFLICT(chat_id, recipe_id) DO UPDATE SET position = excluded.position
			`, chatID, id, i); err != nil {
				return nil, err
			}
		}
		if _, err := tx.Exec(`DELETE FROM favorites WHERE chat_id = ? AND position < 0`, chatID); err != nil {
			return nil, err
		}
		return nil, tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("replace favorites for chat %d: %w", chatID, err)
	}
	return nil
}
