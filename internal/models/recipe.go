package models

type Ingredient struct {
	Name    string
	Measure string
}

// RecipeRef is the list-level shape returned by catalog filters and search.
type RecipeRef struct {
	ID   string
	Name string
}

type Recipe struct {
	ID           string
	Name         string
	Category     string
	Area         string
	ImageURL     string
	YoutubeURL   string
	Ingredients  []Ingredient
	Instructions string
}

func (r *Recipe) Ref() RecipeRef {
	return RecipeRef{ID: r.ID, Name: r.Name}
}
