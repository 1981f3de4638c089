package services

import (
	"fmt"

	"github.com/ad/go-telegram-recipes/internal/fsm"
	tgmodels "github.com/go-telegram/bot/models"
)

const DefaultColumns = 3

type MenuItem struct {
	ID    string
	Label string
}

// Menu describes one page of a grid keyboard. NavToken builds the token for
// the Prev/Next buttons; when nil, nav(namespace, page) is used.
type Menu struct {
	Items     []MenuItem
	Namespace string
	Page      int
	PageSize  int
	Columns   int
	NavToken  func(page int) Token
	BackRow   []tgmodels.InlineKeyboardButton
}

// BuildMenu renders the item grid, the nav row and the optional back row.
// The same Menu always yields the same keyboard.
func BuildMenu(m Menu) (*tgmodels.InlineKeyboardMarkup, PageInfo, error) {
	pageSize := m.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	columns := m.Columns
	if columns < 1 {
		columns = DefaultColumns
	}
	navToken := m.NavToken
	if navToken == nil {
		navToken = func(page int) Token {
			return Token{Action: fsm.ActionNav, Namespace: m.Namespace, Page: page}
		}
	}

	info := Paginate(len(m.Items), m.Page, pageSize)

	var rows [][]tgmodels.InlineKeyboardButton
	var row []tgmodels.InlineKeyboardButton
	for _, item := range m.Items[info.Start:info.End] {
		data, err := EncodeToken(Token{
			Action:    fsm.ActionSelect,
			Namespace: m.Namespace,
			Params:    []string{item.ID},
			Page:      info.Index,
		})
		if err != nil {
			return nil, info, fmt.Errorf("item %q: %w", item.ID, err)
		}
		row = append(row, tgmodels.InlineKeyboardButton{Text: ButtonLabel(item.Label), CallbackData: data})
		if len(row) == columns {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	var nav []tgmodels.InlineKeyboardButton
	if info.HasPrev {
		data, err := EncodeToken(navToken(info.Index - 1))
		if err != nil {
			return nil, info, fmt.Errorf("prev: %w", err)
		}
		nav = append(nav, tgmodels.InlineKeyboardButton{Text: "⬅️ Prev", CallbackData: data})
	}
	nav = append(nav, tgmodels.InlineKeyboardButton{
		Text:         PageIndicator(info),
		CallbackData: MustEncodeToken(Token{Action: fsm.ActionNoop}),
	})
	if info.HasNext {
		data, err := EncodeToken(navToken(info.Index + 1))
		if err != nil {
			return nil, info, fmt.Errorf("next: %w", err)
		}
		nav = append(nav, tgmodels.InlineKeyboardButton{Text: "Next ➡️", CallbackData: data})
	}
	rows = append(rows, nav)

	if len(m.BackRow) > 0 {
		rows = append(rows, m.BackRow)
	}

	return &tgmodels.InlineKeyboardMarkup{InlineKeyboard: rows}, info, nil
}

func PageIndicator(info PageInfo) string {
	return fmt.Sprintf("📄 %d/%d", info.Index+1, info.Count)
}

func BackButton(label, target string) tgmodels.InlineKeyboardButton {
	return tgmodels.InlineKeyboardButton{
		Text:         label,
		CallbackData: MustEncodeToken(Token{Action: fsm.ActionBack, Namespace: target}),
	}
}

// MainMenuKeyboard is the top-level browse mode picker.
func MainMenuKeyboard() *tgmodels.InlineKeyboardMarkup {
	return &tgmodels.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgmodels.InlineKeyboardButton{
			{
				{Text: "🍱 Categories", CallbackData: MustEncodeToken(Token{Action: fsm.ActionMenu, Namespace: fsm.MenuCategories})},
				{Text: "🌍 Cuisines", CallbackData: MustEncodeToken(Token{Action: fsm.ActionMenu, Namespace: fsm.MenuCuisines})},
			},
			{
				{Text: "🎲 Random", CallbackData: MustEncodeToken(Token{Action: fsm.ActionRandom})},
				{Text: "💖 Favorites", CallbackData: MustEncodeToken(Token{Action: fsm.ActionNav, Namespace: fsm.NamespaceFavorites})},
			},
		},
	}
}

// RecipeActionsKeyboard is the row under a recipe detail. saved switches the
// save button to a remove button scoped to chatID.
func RecipeActionsKeyboard(chatID int64, recipeID string, saved bool) (*tgmodels.InlineKeyboardMarkup, error) {
	var saveTok Token
	saveText := "💾 Save"
	if saved {
		saveTok = Token{Action: fsm.ActionUnsave, Namespace: fmt.Sprint(chatID), Params: []string{recipeID}}
		saveText = "🗑 Remove"
	} else {
		saveTok = Token{Action: fsm.ActionSave, Params: []string{recipeID}}
	}
	saveData, err := EncodeToken(saveTok)
	if err != nil {
		return nil, err
	}
	stepsData, err := EncodeToken(Token{Action: fsm.ActionStepsOpen, Params: []string{recipeID}})
	if err != nil {
		return nil, err
	}

	return &tgmodels.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgmodels.InlineKeyboardButton{
			{
				{Text: saveText, CallbackData: saveData},
				{Text: "📖 View Steps", CallbackData: stepsData},
				{Text: "🎲 Random", CallbackData: MustEncodeToken(Token{Action: fsm.ActionRandom})},
			},
			{BackButton("🔙 Back to Menus", fsm.BackMenus)},
		},
	}, nil
}

// StepNavKeyboard renders Prev / "Step i/n" / Next for a walkthrough.
func StepNavKeyboard(recipeID string, index, total int) (*tgmodels.InlineKeyboardMarkup, error) {
	var row []tgmodels.InlineKeyboardButton
	if index > 0 {
		data, err := EncodeToken(Token{Action: fsm.ActionStepsNav, Params: []string{recipeID}, Page: index - 1})
		if err != nil {
			return nil, err
		}
		row = append(row, tgmodels.InlineKeyboardButton{Text: "⬅️ Previous", CallbackData: data})
	}
	row = append(row, tgmodels.InlineKeyboardButton{
		Text:         fmt.Sprintf("Step %d/%d", index+1, total),
		CallbackData: MustEncodeToken(Token{Action: fsm.ActionNoop}),
	})
	if index < total-1 {
		data, err := EncodeToken(Token{Action: fsm.ActionStepsNav, Params: []string{recipeID}, Page: index + 1})
		if err != nil {
			return nil, err
		}
		row = append(row, tgmodels.InlineKeyboardButton{Text: "Next ➡️", CallbackData: data})
	}
	return &tgmodels.InlineKeyboardMarkup{InlineKeyboard: [][]tgmodels.InlineKeyboardButton{row}}, nil
}
