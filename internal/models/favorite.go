package models

import "time"

type Favorite struct {
	ChatID    int64
	RecipeID  string
	Position  int
	CreatedAt time.Time
}
