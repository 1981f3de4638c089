package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ad/go-telegram-recipes/internal/models"
)

var (
	paragraphBreak = regexp.MustCompile(`\n[ \t]*\n`)
	sentenceEnd    = regexp.MustCompile(`[.!?]\s+`)
)

type WalkthroughEngine struct {
	sessions *SessionStore
}

func NewWalkthroughEngine(sessions *SessionStore) *WalkthroughEngine {
	return &WalkthroughEngine{sessions: sessions}
}

// Split turns free-form instructions into steps: blank-line paragraphs
// first, sentences when there is at most one paragraph. An empty result
// means there is no walkthrough for this text.
func Split(raw string) []string {
	text := strings.TrimSpace(strings.ReplaceAll(raw, "\r\n", "\n"))
	if text == "" {
		return nil
	}

	steps := nonEmpty(paragraphBreak.Split(text, -1))
	if len(steps) > 1 {
		return steps
	}

	var sentences []string
	last := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		sentences = append(sentences, text[last:loc[0]+1])
		last = loc[1]
	}
	sentences = append(sentences, text[last:])
	return nonEmpty(sentences)
}

func nonEmpty(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Start opens a walkthrough for the chat, replacing any unfinished one.
func (e *WalkthroughEngine) Start(chatID int64, recipeID string, steps []string, anchorMessageID int) (*models.WalkthroughSession, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("recipe %s: %w", recipeID, ErrEmptyResult)
	}
	sess := &models.WalkthroughSession{
		ChatID:          chatID,
		RecipeID:        recipeID,
		Steps:           steps,
		AnchorMessageID: anchorMessageID,
	}
	e.sessions.Put(sess)
	return sess, nil
}

// Resume returns the chat's walkthrough for recipeID, or ErrSessionMiss when
// it is gone or belongs to another recipe.
func (e *WalkthroughEngine) Resume(chatID int64, recipeID string) (*models.WalkthroughSession, error) {
	sess, ok := e.sessions.Get(chatID)
	if !ok {
		return nil, fmt.Errorf("chat %d: %w", chatID, ErrSessionMiss)
	}
	if sess.RecipeID != recipeID {
		return nil, fmt.Errorf("chat %d: walking %s, asked for %s: %w", chatID, sess.RecipeID, recipeID, ErrSessionMiss)
	}
	return sess, nil
}

// Advance moves sess to index clamped into [0, len-1] and stores it.
// Requesting the current index again is a no-op.
func (e *WalkthroughEngine) Advance(sess *models.WalkthroughSession, index int) *models.WalkthroughSession {
	sess.CurrentIndex = ClampStep(index, len(sess.Steps))
	e.sessions.Put(sess)
	return sess
}

// Reanchor moves the walkthrough to another message, used when the anchor
// can no longer be edited.
func (e *WalkthroughEngine) Reanchor(sess *models.WalkthroughSession, messageID int) *models.WalkthroughSession {
	sess.AnchorMessageID = messageID
	e.sessions.Put(sess)
	return sess
}

func ClampStep(index, total int) int {
	if index > total-1 {
		index = total - 1
	}
	if index < 0 {
		index = 0
	}
	return index
}

func RenderStep(sess *models.WalkthroughSession) string {
	return fmt.Sprintf("🔥 <b>Step %d/%d</b>\n\n%s", sess.CurrentIndex+1, sess.Total(), EscapeHTML(sess.CurrentStep()))
}
