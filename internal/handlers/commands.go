package handlers

import (
	"context"
	"log"
	"strings"

	"github.com/ad/go-telegram-recipes/internal/fsm"
	"github.com/ad/go-telegram-recipes/internal/services"
)

const (
	welcomeText = "👨‍🍳 <b>Welcome to MealRecipe Bot!</b>\nDiscover recipes from around the world. Choose a category or cuisine to begin."
	helpText    = "👨‍🍳 <b>MealRecipe Bot</b>\n\n" +
		"/categories - browse by category\n" +
		"/cuisines - browse by cuisine\n" +
		"/search &lt;name&gt; - find a recipe\n" +
		"/random - surprise me\n" +
		"/favorites - your saved recipes\n\n" +
		"Or just type a dish name."
	searchUsage    = "❗ Usage: /search &lt;recipe name&gt;"
	unknownCommand = "Unknown command. Try /help."
)

// HandleCommand answers a text message. Slash commands open screens as new
// messages; any other text is a recipe search.
func (r *Router) HandleCommand(ctx context.Context, chatID int64, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if !strings.HasPrefix(text, "/") {
		return r.sendScreen(ctx, chatID, NoticeNoSearch, func(ctx context.Context) (*screen, error) {
			return r.resultsScreen(ctx, fsm.NamespaceSearch, text, 0)
		})
	}

	command, args, _ := strings.Cut(text, " ")
	command, _, _ = strings.Cut(command, "@")
	args = strings.TrimSpace(args)

	switch strings.ToLower(command) {
	case "/start":
		return r.reply(ctx, chatID, welcomeText, mainScreen())
	case "/help":
		return r.reply(ctx, chatID, helpText, mainScreen())
	case "/categories":
		return r.sendScreen(ctx, chatID, NoticeNoRecipes, func(ctx context.Context) (*screen, error) {
			return r.menuScreen(ctx, fsm.MenuCategories, 0)
		})
	case "/cuisines":
		return r.sendScreen(ctx, chatID, NoticeNoRecipes, func(ctx context.Context) (*screen, error) {
			return r.menuScreen(ctx, fsm.MenuCuisines, 0)
		})
	case "/search":
		if args == "" {
			return r.reply(ctx, chatID, searchUsage, nil)
		}
		return r.sendScreen(ctx, chatID, NoticeNoSearch, func(ctx context.Context) (*screen, error) {
			return r.resultsScreen(ctx, fsm.NamespaceSearch, args, 0)
		})
	case "/random":
		if res := r.random(ctx, chatID); res.Ack != "" {
			return r.reply(ctx, chatID, res.Ack, nil)
		}
		return nil
	case "/favorites":
		return r.sendScreen(ctx, chatID, NoticeNoFavorites, func(ctx context.Context) (*screen, error) {
			return r.favoritesScreen(ctx, chatID, 0)
		})
	}
	return r.reply(ctx, chatID, unknownCommand, nil)
}

// sendScreen appends a freshly built screen, or the failure notice instead.
func (r *Router) sendScreen(ctx context.Context, chatID int64, empty string, build func(context.Context) (*screen, error)) error {
	s, err := build(ctx)
	if err != nil {
		log.Printf("[ROUTER] chat %d: build screen: %v", chatID, err)
		return r.reply(ctx, chatID, services.EscapeHTML(noticeFor(err, empty)), nil)
	}
	_, err = r.out.SendText(ctx, chatID, s.text, s.keyboard)
	return err
}

func (r *Router) reply(ctx context.Context, chatID int64, text string, s *screen) error {
	if s == nil {
		_, err := r.out.SendText(ctx, chatID, text, nil)
		return err
	}
	_, err := r.out.SendText(ctx, chatID, text, s.keyboard)
	return err
}
