package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/ad/go-telegram-recipes/internal/fsm"
	"github.com/ad/go-telegram-recipes/internal/models"
	"github.com/ad/go-telegram-recipes/internal/services"
	tgmodels "github.com/go-telegram/bot/models"
	"golang.org/x/sync/errgroup"
)

const (
	NoticeUnknown      = "Unknown action."
	NoticeNetwork      = "⚠️ Recipe service is unavailable, try again."
	NoticeRecipeFailed = "⚠️ Failed to load recipe."
	NoticeNoRecipes    = "No recipes found in this category."
	NoticeNoSearch     = "😔 No recipes found. Try another search."
	NoticeNoFavorites  = "💔 You have no saved recipes yet."
	NoticeNoSteps      = "⚠️ No steps available."
	NoticeSaved        = "💾 Saved to favorites."
	NoticeAlreadySaved = "⚠️ Already in favorites."
	NoticeRemoved      = "🗑 Removed from favorites."
	NoticeNotFavorite  = "⚠️ Not in your favorites."
	NoticeStorage      = "⚠️ Could not update favorites."
	NoticeSendFailed   = "⚠️ Could not update the screen."

	instructionsPreview = 900
	favoriteNameFetches = 4
)

var errUnknownRoute = errors.New("unknown route")

// Messenger delivers rendered screens.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string, keyboard *tgmodels.InlineKeyboardMarkup) (int, error)
	SendImage(ctx context.Context, chatID int64, imageURL, caption string, keyboard *tgmodels.InlineKeyboardMarkup) (int, error)
	EditText(ctx context.Context, chatID int64, messageID int, text string, keyboard *tgmodels.InlineKeyboardMarkup) error
}

// Result tells the transport how the interaction was rendered and what to
// acknowledge the click with.
type Result struct {
	Policy fsm.Policy
	Ack    string
}

type screen struct {
	text     string
	keyboard *tgmodels.InlineKeyboardMarkup
}

type Router struct {
	source       services.RecipeSource
	out          Messenger
	walkthrough  *services.WalkthroughEngine
	favorites    *services.FavoritesLedger
	fetchTimeout time.Duration
	pageSize     int
}

func NewRouter(
	source services.RecipeSource,
	out Messenger,
	walkthrough *services.WalkthroughEngine,
	favorites *services.FavoritesLedger,
	fetchTimeout time.Duration,
) *Router {
	return &Router{
		source:       source,
		out:          out,
		walkthrough:  walkthrough,
		favorites:    favorites,
		fetchTimeout: fetchTimeout,
		pageSize:     services.DefaultPageSize,
	}
}

// HandleCallback decodes a button token and runs the matching transition.
// Failures never replace the screen the button lives on.
func (r *Router) HandleCallback(ctx context.Context, chatID int64, messageID int, data string) Result {
	tok, err := services.DecodeToken(data)
	if err != nil {
		log.Printf("[ROUTER] chat %d: %v", chatID, err)
		return Result{Policy: fsm.PolicyNone, Ack: NoticeUnknown}
	}

	switch tok.Action {
	case fsm.ActionMenu:
		return r.edit(ctx, chatID, messageID, NoticeNoRecipes, func(ctx context.Context) (*screen, error) {
			return r.menuScreen(ctx, tok.Namespace, tok.Page)
		})

	case fsm.ActionNav:
		return r.edit(ctx, chatID, messageID, NoticeNoFavorites, func(ctx context.Context) (*screen, error) {
			return r.listScreen(ctx, chatID, tok.Namespace, tok.Page)
		})

	case fsm.ActionSelect:
		switch tok.Namespace {
		case fsm.NamespaceRecipe, fsm.NamespaceFavorites:
			return r.open(ctx, chatID, tok.Param(0))
		}
		return r.edit(ctx, chatID, messageID, emptyNotice(tok.Namespace), func(ctx context.Context) (*screen, error) {
			return r.resultsScreen(ctx, tok.Namespace, tok.Param(0), 0)
		})

	case fsm.ActionResultsNav:
		return r.edit(ctx, chatID, messageID, emptyNotice(tok.Namespace), func(ctx context.Context) (*screen, error) {
			return r.resultsScreen(ctx, tok.Namespace, tok.Param(0), tok.Page)
		})

	case fsm.ActionOpen:
		return r.open(ctx, chatID, tok.Param(0))

	case fsm.ActionSave:
		return r.save(ctx, chatID, tok.Param(0))

	case fsm.ActionUnsave:
		return r.unsave(ctx, chatID, tok.Namespace, tok.Param(0))

	case fsm.ActionStepsOpen:
		return r.stepsOpen(ctx, chatID, tok.Param(0))

	case fsm.ActionStepsNav:
		return r.stepsNav(ctx, chatID, messageID, tok.Param(0), tok.Page)

	case fsm.ActionBack:
		return r.edit(ctx, chatID, messageID, NoticeNoFavorites, func(ctx context.Context) (*screen, error) {
			return r.backScreen(ctx, chatID, tok.Namespace)
		})

	case fsm.ActionRandom:
		return r.random(ctx, chatID)

	case fsm.ActionNoop:
		return Result{Policy: fsm.PolicyNone}
	}

	return Result{Policy: fsm.PolicyNone, Ack: NoticeUnknown}
}

func (r *Router) edit(ctx context.Context, chatID int64, messageID int, empty string, build func(context.Context) (*screen, error)) Result {
	s, err := build(ctx)
	if err != nil {
		log.Printf("[ROUTER] chat %d: build screen: %v", chatID, err)
		return Result{Policy: fsm.PolicyNone, Ack: noticeFor(err, empty)}
	}
	if err := r.out.EditText(ctx, chatID, messageID, s.text, s.keyboard); err != nil {
		log.Printf("[ROUTER] chat %d: edit message %d: %v", chatID, messageID, err)
		return Result{Policy: fsm.PolicyNone, Ack: NoticeSendFailed}
	}
	return Result{Policy: fsm.PolicyEdit}
}

func noticeFor(err error, empty string) string {
	switch {
	case errors.Is(err, services.ErrEmptyResult):
		return empty
	case errors.Is(err, services.ErrNetwork), errors.Is(err, context.DeadlineExceeded):
		return NoticeNetwork
	case errors.Is(err, services.ErrOwnership):
		return NoticeNotFavorite
	case errors.Is(err, services.ErrEncoding):
		return NoticeSendFailed
	}
	return NoticeUnknown
}

func emptyNotice(namespace string) string {
	switch namespace {
	case fsm.NamespaceSearch:
		return NoticeNoSearch
	case fsm.NamespaceFavorites:
		return NoticeNoFavorites
	}
	return NoticeNoRecipes
}

func mainScreen() *screen {
	return &screen{
		text:     "👨‍🍳 <b>MealRecipe</b>\nChoose a browse mode:",
		keyboard: services.MainMenuKeyboard(),
	}
}

// menuScreen renders the top-level category or cuisine picker.
func (r *Router) menuScreen(ctx context.Context, kind string, page int) (*screen, error) {
	var (
		names     []string
		namespace string
		title     string
		err       error
	)

	fetchCtx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
	defer cancel()

	switch kind {
	case fsm.MenuCategories:
		names, err = r.source.ListCategories(fetchCtx)
		namespace, title = fsm.NamespaceCategory, "🍱 <b>Select a Category</b>"
	case fsm.MenuCuisines:
		names, err = r.source.ListCuisines(fetchCtx)
		namespace, title = fsm.NamespaceCuisine, "🌍 <b>Select a Cuisine</b>"
	default:
		return nil, fmt.Errorf("menu %q: %w", kind, errUnknownRoute)
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}

	items := make([]services.MenuItem, len(names))
	for i, name := range names {
		items[i] = services.MenuItem{ID: name, Label: name}
	}

	keyboard, info, err := services.BuildMenu(services.Menu{
		Items:     items,
		Namespace: namespace,
		Page:      page,
		PageSize:  r.pageSize,
		NavToken: func(p int) services.Token {
			return services.Token{Action: fsm.ActionMenu, Namespace: kind, Page: p}
		},
		BackRow: []tgmodels.InlineKeyboardButton{services.BackButton("🔙 Back to Menus", fsm.BackMenus)},
	})
	if err != nil {
		return nil, err
	}
	return &screen{
		text:     fmt.Sprintf("%s (Page %d/%d)", title, info.Index+1, info.Count),
		keyboard: keyboard,
	}, nil
}

// listScreen rebuilds a page of a list opened earlier.
func (r *Router) listScreen(ctx context.Context, chatID int64, namespace string, page int) (*screen, error) {
	switch namespace {
	case fsm.NamespaceFavorites:
		return r.favoritesScreen(ctx, chatID, page)
	case fsm.NamespaceCategory, fsm.MenuCategories:
		return r.menuScreen(ctx, fsm.MenuCategories, page)
	case fsm.NamespaceCuisine, fsm.MenuCuisines:
		return r.menuScreen(ctx, fsm.MenuCuisines, page)
	}
	return nil, fmt.Errorf("list %q: %w", namespace, errUnknownRoute)
}

func (r *Router) backScreen(ctx context.Context, chatID int64, target string) (*screen, error) {
	switch target {
	case fsm.BackMenus:
		return mainScreen(), nil
	case fsm.NamespaceCategory:
		return r.menuScreen(ctx, fsm.MenuCategories, 0)
	case fsm.NamespaceCuisine:
		return r.menuScreen(ctx, fsm.MenuCuisines, 0)
	case fsm.NamespaceFavorites:
		return r.favoritesScreen(ctx, chatID, 0)
	}
	return nil, fmt.Errorf("back %q: %w", target, errUnknownRoute)
}

// resultsScreen lists the recipes of a category, a cuisine or a search.
// Nothing is cached: every page re-fetches the list.
func (r *Router) resultsScreen(ctx context.Context, namespace, name string, page int) (*screen, error) {
	var (
		refs  []models.RecipeRef
		title string
		back  tgmodels.InlineKeyboardButton
		err   error
	)

	fetchCtx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
	defer cancel()

	switch namespace {
	case fsm.NamespaceCategory:
		refs, err = r.source.ListByCategory(fetchCtx, name)
		title = "🍴 " + services.FormatBold(name) + " — recipes"
		back = services.BackButton("🔙 Back to Categories", fsm.NamespaceCategory)
	case fsm.NamespaceCuisine:
		refs, err = r.source.ListByCuisine(fetchCtx, name)
		title = "🌏 " + services.FormatBold(name) + " — recipes"
		back = services.BackButton("🔙 Back to Cuisines", fsm.NamespaceCuisine)
	case fsm.NamespaceSearch:
		refs, err = r.source.SearchByName(fetchCtx, name)
		title = "🔎 Results for «" + services.EscapeHTML(name) + "»"
		back = services.BackButton("🔙 Back to Menus", fsm.BackMenus)
	default:
		return nil, fmt.Errorf("results %q: %w", namespace, errUnknownRoute)
	}
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", namespace, name, err)
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("%s %q: %w", namespace, name, services.ErrEmptyResult)
	}

	navToken := func(p int) services.Token {
		return services.Token{Action: fsm.ActionResultsNav, Namespace: namespace, Params: []string{name}, Page: p}
	}
	if _, err := services.EncodeToken(navToken(0)); err != nil {
		// The name cannot ride in a nav token, so only the first page is offered.
		refs = services.SlicePage(refs, 0, r.pageSize)
		page = 0
		navToken = nil
	}

	items := make([]services.MenuItem, len(refs))
	for i, ref := range refs {
		items[i] = services.MenuItem{ID: ref.ID, Label: ref.Name}
	}

	keyboard, info, err := services.BuildMenu(services.Menu{
		Items:     items,
		Namespace: fsm.NamespaceRecipe,
		Page:      page,
		PageSize:  r.pageSize,
		NavToken:  navToken,
		BackRow:   []tgmodels.InlineKeyboardButton{back},
	})
	if err != nil {
		return nil, err
	}
	return &screen{
		text:     fmt.Sprintf("%s (Page %d/%d)", title, info.Index+1, info.Count),
		keyboard: keyboard,
	}, nil
}

func (r *Router) fetchRecipe(ctx context.Context, id string) (*models.Recipe, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
	defer cancel()

	recipe, err := r.source.GetByID(fetchCtx, id)
	if err != nil {
		return nil, fmt.Errorf("recipe %s: %w", id, err)
	}
	return recipe, nil
}

func (r *Router) open(ctx context.Context, chatID int64, id string) Result {
	recipe, err := r.fetchRecipe(ctx, id)
	if err != nil {
		log.Printf("[ROUTER] chat %d: %v", chatID, err)
		return Result{Policy: fsm.PolicyNone, Ack: NoticeRecipeFailed}
	}
	return r.sendRecipe(ctx, chatID, recipe)
}

func (r *Router) random(ctx context.Context, chatID int64) Result {
	fetchCtx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
	recipe, err := r.source.GetRandom(fetchCtx)
	cancel()
	if err != nil {
		log.Printf("[ROUTER] chat %d: random recipe: %v", chatID, err)
		return Result{Policy: fsm.PolicyNone, Ack: NoticeRecipeFailed}
	}
	return r.sendRecipe(ctx, chatID, recipe)
}

// sendRecipe appends the photo card and the detail body with its actions.
func (r *Router) sendRecipe(ctx context.Context, chatID int64, recipe *models.Recipe) Result {
	caption := fmt.Sprintf("🍽 %s\n🏷 %s • 🌍 %s",
		services.FormatBold(recipe.Name), services.EscapeHTML(orNA(recipe.Category)), services.EscapeHTML(orNA(recipe.Area)))

	sent := false
	if recipe.ImageURL != "" {
		if _, err := r.out.SendImage(ctx, chatID, recipe.ImageURL, caption, nil); err != nil {
			log.Printf("[ROUTER] chat %d: photo for %s: %v", chatID, recipe.ID, err)
		} else {
			sent = true
		}
	}
	if !sent {
		if _, err := r.out.SendText(ctx, chatID, caption, nil); err != nil {
			log.Printf("[ROUTER] chat %d: caption for %s: %v", chatID, recipe.ID, err)
			return Result{Policy: fsm.PolicyNone, Ack: NoticeSendFailed}
		}
	}

	saved, err := r.favorites.Contains(ctx, chatID, recipe.ID)
	if err != nil {
		log.Printf("[ROUTER] chat %d: favorites lookup: %v", chatID, err)
	}
	keyboard, err := services.RecipeActionsKeyboard(chatID, recipe.ID, saved)
	if err != nil {
		log.Printf("[ROUTER] chat %d: actions for %s: %v", chatID, recipe.ID, err)
		keyboard = nil
	}

	if _, err := r.out.SendText(ctx, chatID, recipeDetails(recipe), keyboard); err != nil {
		log.Printf("[ROUTER] chat %d: details for %s: %v", chatID, recipe.ID, err)
		return Result{Policy: fsm.PolicyAppend, Ack: NoticeSendFailed}
	}
	return Result{Policy: fsm.PolicyAppend}
}

func recipeDetails(recipe *models.Recipe) string {
	text := "🧂 <b>Ingredients:</b>\n"
	if len(recipe.Ingredients) == 0 {
		text += "N/A"
	}
	for i, ing := range recipe.Ingredients {
		if i > 0 {
			text += "\n"
		}
		text += "• " + services.EscapeHTML(ing.Name)
		if ing.Measure != "" {
			text += " — " + services.EscapeHTML(ing.Measure)
		}
	}

	text += "\n\n🔥 <b>Instructions (preview):</b>\n" + services.EscapeHTML(previewText(recipe.Instructions, instructionsPreview))

	if recipe.YoutubeURL != "" {
		text += "\n\n▶️ " + services.FormatLink("Watch on YouTube", recipe.YoutubeURL)
	}
	return text
}

func previewText(text string, limit int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit]) + "..."
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func (r *Router) save(ctx context.Context, chatID int64, id string) Result {
	added, err := r.favorites.Add(ctx, chatID, id)
	if err != nil {
		log.Printf("[ROUTER] chat %d: save %s: %v", chatID, id, err)
		return Result{Policy: fsm.PolicyNone, Ack: NoticeStorage}
	}
	if !added {
		return Result{Policy: fsm.PolicyNone, Ack: NoticeAlreadySaved}
	}
	return Result{Policy: fsm.PolicyNone, Ack: NoticeSaved}
}

// unsave honors the token's owner scope: a chat can only remove its own
// favorites, and anything else reads as "not in your favorites".
func (r *Router) unsave(ctx context.Context, chatID int64, owner, id string) Result {
	ownerID, err := strconv.ParseInt(owner, 10, 64)
	if err != nil {
		log.Printf("[ROUTER] chat %d: unsave owner %q: %v", chatID, owner, err)
		return Result{Policy: fsm.PolicyNone, Ack: NoticeUnknown}
	}
	if ownerID != chatID {
		err := fmt.Errorf("chat %d removing %s from chat %d: %w", chatID, id, ownerID, services.ErrOwnership)
		log.Printf("[ROUTER] %v", err)
		return Result{Policy: fsm.PolicyNone, Ack: noticeFor(err, NoticeNotFavorite)}
	}

	removed, err := r.favorites.Remove(ctx, chatID, id)
	if err != nil {
		log.Printf("[ROUTER] chat %d: unsave %s: %v", chatID, id, err)
		return Result{Policy: fsm.PolicyNone, Ack: NoticeStorage}
	}
	if !removed {
		return Result{Policy: fsm.PolicyNone, Ack: NoticeNotFavorite}
	}
	return Result{Policy: fsm.PolicyNone, Ack: NoticeRemoved}
}

// loadSteps fetches a recipe and splits its instructions. The returned
// notice describes the failure to the user.
func (r *Router) loadSteps(ctx context.Context, id string) ([]string, string, error) {
	recipe, err := r.fetchRecipe(ctx, id)
	if err != nil {
		return nil, NoticeRecipeFailed, err
	}
	steps := services.Split(recipe.Instructions)
	if len(steps) == 0 {
		return nil, NoticeNoSteps, fmt.Errorf("recipe %s has no steps: %w", id, services.ErrEmptyResult)
	}
	return steps, "", nil
}

func (r *Router) stepsOpen(ctx context.Context, chatID int64, id string) Result {
	steps, notice, err := r.loadSteps(ctx, id)
	if err != nil {
		log.Printf("[ROUTER] chat %d: %v", chatID, err)
		return Result{Policy: fsm.PolicyNone, Ack: notice}
	}

	first := &models.WalkthroughSession{ChatID: chatID, RecipeID: id, Steps: steps}
	keyboard, err := services.StepNavKeyboard(id, 0, len(steps))
	if err != nil {
		log.Printf("[ROUTER] chat %d: step keyboard for %s: %v", chatID, id, err)
		return Result{Policy: fsm.PolicyNone, Ack: NoticeSendFailed}
	}

	messageID, err := r.out.SendText(ctx, chatID, services.RenderStep(first), keyboard)
	if err != nil {
		log.Printf("[ROUTER] chat %d: send step: %v", chatID, err)
		return Result{Policy: fsm.PolicyNone, Ack: NoticeSendFailed}
	}

	if _, err := r.walkthrough.Start(chatID, id, steps, messageID); err != nil {
		log.Printf("[ROUTER] chat %d: start walkthrough: %v", chatID, err)
	}
	return Result{Policy: fsm.PolicyAppend}
}

// stepsNav edits the walkthrough anchor. A lost or foreign session is
// rebuilt from the recipe and the clicked message becomes the anchor.
func (r *Router) stepsNav(ctx context.Context, chatID int64, messageID int, id string, index int) Result {
	sess, err := r.walkthrough.Resume(chatID, id)
	if errors.Is(err, services.ErrSessionMiss) {
		log.Printf("[ROUTER] %v, regenerating", err)
		steps, notice, loadErr := r.loadSteps(ctx, id)
		if loadErr != nil {
			log.Printf("[ROUTER] chat %d: %v", chatID, loadErr)
			return Result{Policy: fsm.PolicyNone, Ack: notice}
		}
		sess, err = r.walkthrough.Start(chatID, id, steps, messageID)
	}
	if err != nil {
		log.Printf("[ROUTER] chat %d: resume walkthrough: %v", chatID, err)
		return Result{Policy: fsm.PolicyNone, Ack: NoticeNoSteps}
	}

	sess = r.walkthrough.Advance(sess, index)
	keyboard, err := services.StepNavKeyboard(id, sess.CurrentIndex, sess.Total())
	if err != nil {
		log.Printf("[ROUTER] chat %d: step keyboard for %s: %v", chatID, id, err)
		return Result{Policy: fsm.PolicyNone, Ack: NoticeSendFailed}
	}
	text := services.RenderStep(sess)

	err = r.out.EditText(ctx, chatID, sess.AnchorMessageID, text, keyboard)
	if err != nil && sess.AnchorMessageID != messageID {
		log.Printf("[ROUTER] chat %d: anchor %d not editable (%v), using %d", chatID, sess.AnchorMessageID, err, messageID)
		if err = r.out.EditText(ctx, chatID, messageID, text, keyboard); err == nil {
			r.walkthrough.Reanchor(sess, messageID)
		}
	}
	if err != nil {
		log.Printf("[ROUTER] chat %d: edit step: %v", chatID, err)
		return Result{Policy: fsm.PolicyNone, Ack: NoticeSendFailed}
	}
	return Result{Policy: fsm.PolicyEdit}
}

// favoritesScreen lists the chat's saved recipes in insertion order. Only
// the visible page resolves names, with bounded concurrency.
func (r *Router) favoritesScreen(ctx context.Context, chatID int64, page int) (*screen, error) {
	ids, err := r.favorites.List(ctx, chatID)
	if err != nil {
		return nil, err
	}
	ids = services.InsertionOrder.Apply(ids)
	if len(ids) == 0 {
		return nil, fmt.Errorf("favorites of chat %d: %w", chatID, services.ErrEmptyResult)
	}

	items := make([]services.MenuItem, len(ids))
	for i, id := range ids {
		items[i] = services.MenuItem{ID: id, Label: "Recipe " + id}
	}

	info := services.Paginate(len(ids), page, r.pageSize)
	g := new(errgroup.Group)
	g.SetLimit(favoriteNameFetches)
	for i := info.Start; i < info.End; i++ {
		g.Go(func() error {
			recipe, err := r.fetchRecipe(ctx, items[i].ID)
			if err != nil {
				log.Printf("[ROUTER] chat %d: favorite name: %v", chatID, err)
				return nil
			}
			items[i].Label = recipe.Name
			return nil
		})
	}
	_ = g.Wait()

	keyboard, info, err := services.BuildMenu(services.Menu{
		Items:     items,
		Namespace: fsm.NamespaceFavorites,
		Page:      info.Index,
		PageSize:  r.pageSize,
		BackRow:   []tgmodels.InlineKeyboardButton{services.BackButton("🔙 Back to Menus", fsm.BackMenus)},
	})
	if err != nil {
		return nil, err
	}
	return &screen{
		text:     fmt.Sprintf("💖 <b>Your favorites</b> (Page %d/%d)", info.Index+1, info.Count),
		keyboard: keyboard,
	}, nil
}
