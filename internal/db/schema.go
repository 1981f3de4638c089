package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS favorites (
    chat_id INTEGER NOT NULL,
    recipe_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (chat_id, recipe_id)
);

CREATE INDEX IF NOT EXISTS idx_favorites_chat_position ON favorites(chat_id, position);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
