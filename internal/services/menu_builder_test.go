package services

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ad/go-telegram-recipes/internal/fsm"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"
)

func categoryItems(n int) []MenuItem {
	items := make([]MenuItem, n)
	for i := range items {
		name := fmt.Sprintf("Category %02d", i)
		items[i] = MenuItem{ID: name, Label: name}
	}
	return items
}

func itemButtons(kb *tgmodels.InlineKeyboardMarkup) []tgmodels.InlineKeyboardButton {
	var out []tgmodels.InlineKeyboardButton
	for _, row := range kb.InlineKeyboard {
		for _, b := range row {
			if strings.HasPrefix(b.CallbackData, string(fsm.ActionSelect)+":") {
				out = append(out, b)
			}
		}
	}
	return out
}

func navRow(kb *tgmodels.InlineKeyboardMarkup, hasBack bool) []tgmodels.InlineKeyboardButton {
	idx := len(kb.InlineKeyboard) - 1
	if hasBack {
		idx--
	}
	return kb.InlineKeyboard[idx]
}

func TestBuildMenuTwelveItems(t *testing.T) {
	items := categoryItems(12)

	first, info, err := BuildMenu(Menu{Items: items, Namespace: fsm.NamespaceCategory})
	if err != nil {
		t.Fatal(err)
	}
	if info.Index != 0 || info.Count != 2 {
		t.Fatalf("page info = %+v", info)
	}
	firstButtons := itemButtons(first)
	if len(firstButtons) != 9 {
		t.Fatalf("page 0 shows %d items, want 9", len(firstButtons))
	}
	for _, row := range first.InlineKeyboard[:3] {
		if len(row) != 3 {
			t.Fatalf("grid row has %d buttons, want 3", len(row))
		}
	}

	nav := navRow(first, false)
	if len(nav) != 2 {
		t.Fatalf("nav row = %+v, want indicator + Next", nav)
	}
	if !strings.Contains(nav[0].Text, "1/2") {
		t.Errorf("indicator = %q, want 1/2", nav[0].Text)
	}
	next, err := DecodeToken(nav[1].CallbackData)
	if err != nil {
		t.Fatal(err)
	}
	if next.Action != fsm.ActionNav || next.Namespace != fsm.NamespaceCategory || next.Page != 1 {
		t.Fatalf("next token = %+v", next)
	}

	second, _, err := BuildMenu(Menu{Items: items, Namespace: fsm.NamespaceCategory, Page: next.Page})
	if err != nil {
		t.Fatal(err)
	}
	secondButtons := itemButtons(second)
	if len(secondButtons) != 3 {
		t.Fatalf("page 1 shows %d items, want 3", len(secondButtons))
	}
	seen := map[string]bool{}
	for _, b := range firstButtons {
		seen[b.Text] = true
	}
	for _, b := range secondButtons {
		if seen[b.Text] {
			t.Errorf("page 1 repeats %q from page 0", b.Text)
		}
	}
	nav = navRow(second, false)
	if len(nav) != 2 || !strings.Contains(nav[1].Text, "2/2") {
		t.Fatalf("page 1 nav row = %+v, want Prev + 2/2", nav)
	}
}

func TestBuildMenuEmpty(t *testing.T) {
	kb, info, err := BuildMenu(Menu{Namespace: fsm.NamespaceCuisine, Page: 4})
	if err != nil {
		t.Fatal(err)
	}
	if info.Index != 0 {
		t.Errorf("page = %d, want 0", info.Index)
	}
	if len(kb.InlineKeyboard) != 1 {
		t.Fatalf("rows = %d, want only the nav row", len(kb.InlineKeyboard))
	}
	nav := kb.InlineKeyboard[0]
	if len(nav) != 1 || !strings.Contains(nav[0].Text, "1/1") {
		t.Fatalf("nav row = %+v, want a lone 1/1 indicator", nav)
	}
}

func TestBuildMenuBackRowAndTokens(t *testing.T) {
	items := []MenuItem{{ID: "Fish & Chips: Deluxe", Label: "Fish & Chips:\nDeluxe"}}
	back := []tgmodels.InlineKeyboardButton{BackButton("🔙 Back", fsm.NamespaceCategory)}

	kb, _, err := BuildMenu(Menu{Items: items, Namespace: fsm.NamespaceSearch, BackRow: back})
	if err != nil {
		t.Fatal(err)
	}
	last := kb.InlineKeyboard[len(kb.InlineKeyboard)-1]
	if diff := cmp.Diff(back, last); diff != "" {
		t.Fatalf("back row mismatch (-want +got):\n%s", diff)
	}

	btn := kb.InlineKeyboard[0][0]
	if btn.Text != "Fish & Chips: Deluxe" {
		t.Errorf("label = %q", btn.Text)
	}
	tok, err := DecodeToken(btn.CallbackData)
	if err != nil {
		t.Fatal(err)
	}
	if tok.Param(0) != "Fish & Chips: Deluxe" {
		t.Errorf("raw identifier = %q", tok.Param(0))
	}
}

func TestBuildMenuCustomNavToken(t *testing.T) {
	kb, _, err := BuildMenu(Menu{
		Items:     categoryItems(20),
		Namespace: fsm.NamespaceRecipe,
		Page:      1,
		NavToken: func(page int) Token {
			return Token{Action: fsm.ActionResultsNav, Namespace: fsm.NamespaceCategory, Params: []string{"Beef"}, Page: page}
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	nav := navRow(kb, false)
	if nav[0].CallbackData != "results:category:Beef:0" || nav[2].CallbackData != "results:category:Beef:2" {
		t.Fatalf("nav row = %+v", nav)
	}
}

func TestBuildMenuOversizedItem(t *testing.T) {
	items := []MenuItem{{ID: strings.Repeat("x", 70), Label: "long"}}
	_, _, err := BuildMenu(Menu{Items: items, Namespace: fsm.NamespaceCategory})
	if !errors.Is(err, ErrEncoding) {
		t.Fatalf("expected ErrEncoding, got %v", err)
	}
}

func TestBuildMenuDeterministic_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 40).Draw(t, "n")
		page := rapid.IntRange(-3, 8).Draw(t, "page")
		items := categoryItems(n)

		a, _, errA := BuildMenu(Menu{Items: items, Namespace: fsm.NamespaceCategory, Page: page})
		b, _, errB := BuildMenu(Menu{Items: items, Namespace: fsm.NamespaceCategory, Page: page})
		if errA != nil || errB != nil {
			t.Fatalf("unexpected errors: %v, %v", errA, errB)
		}
		if diff := cmp.Diff(a, b); diff != "" {
			t.Fatalf("keyboards differ (-first +second):\n%s", diff)
		}
	})
}

func TestStepNavKeyboard(t *testing.T) {
	kb, err := StepNavKeyboard("52977", 0, 3)
	if err != nil {
		t.Fatal(err)
	}
	row := kb.InlineKeyboard[0]
	if len(row) != 2 || row[0].Text != "Step 1/3" || row[1].CallbackData != "steps:52977:1" {
		t.Fatalf("first step row = %+v", row)
	}

	kb, err = StepNavKeyboard("52977", 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	row = kb.InlineKeyboard[0]
	if len(row) != 2 || row[0].CallbackData != "steps:52977:1" || row[1].Text != "Step 3/3" {
		t.Fatalf("last step row = %+v", row)
	}
}

func TestRecipeActionsKeyboard(t *testing.T) {
	kb, err := RecipeActionsKeyboard(42, "52977", false)
	if err != nil {
		t.Fatal(err)
	}
	if kb.InlineKeyboard[0][0].CallbackData != "save:52977" {
		t.Errorf("save button = %+v", kb.InlineKeyboard[0][0])
	}

	kb, err = RecipeActionsKeyboard(42, "52977", true)
	if err != nil {
		t.Fatal(err)
	}
	if kb.InlineKeyboard[0][0].CallbackData != "unsave:42:52977" {
		t.Errorf("remove button = %+v", kb.InlineKeyboard[0][0])
	}
}
