package fsm

// Action tags a navigation token. Every callback button carries exactly one.
type Action string

const (
	ActionMenu       Action = "menu"
	ActionNav        Action = "nav"
	ActionSelect     Action = "select"
	ActionResultsNav Action = "results"
	ActionOpen       Action = "open"
	ActionSave       Action = "save"
	ActionUnsave     Action = "unsave"
	ActionStepsOpen  Action = "viewsteps"
	ActionStepsNav   Action = "steps"
	ActionBack       Action = "back"
	ActionRandom     Action = "random"
	ActionNoop       Action = "noop"
	ActionUnknown    Action = ""
)

// Policy says what happens to the screen that hosted the clicked button.
type Policy int

const (
	PolicyNone Policy = iota
	PolicyEdit
	PolicyAppend
)

func (p Policy) String() string {
	switch p {
	case PolicyEdit:
		return "edit"
	case PolicyAppend:
		return "append"
	default:
		return "none"
	}
}

// PolicyFor returns the render policy of a transition. Save only acknowledges.
func PolicyFor(a Action) Policy {
	switch a {
	case ActionMenu, ActionNav, ActionSelect, ActionResultsNav, ActionStepsNav, ActionBack:
		return PolicyEdit
	case ActionOpen, ActionStepsOpen, ActionRandom:
		return PolicyAppend
	default:
		return PolicyNone
	}
}

// Menu types and list namespaces.
const (
	MenuCategories = "categories"
	MenuCuisines   = "cuisines"

	NamespaceCategory  = "category"
	NamespaceCuisine   = "cuisine"
	NamespaceSearch    = "search"
	NamespaceFavorites = "favorites"
	NamespaceRecipe    = "recipe"

	BackMenus = "menus"
)
