package models

import "time"

type WalkthroughSession struct {
	ChatID          int64
	RecipeID        string
	Steps           []string
	CurrentIndex    int
	AnchorMessageID int
	UpdatedAt       time.Time
}

func (s *WalkthroughSession) Total() int {
	return len(s.Steps)
}

func (s *WalkthroughSession) CurrentStep() string {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Steps) {
		return ""
	}
	return s.Steps[s.CurrentIndex]
}

// Clone returns a copy that does not share the Steps backing array.
func (s *WalkthroughSession) Clone() *WalkthroughSession {
	c := *s
	c.Steps = append([]string(nil), s.Steps...)
	return &c
}
