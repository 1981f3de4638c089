package mealdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ad/go-telegram-recipes/internal/models"
	"github.com/ad/go-telegram-recipes/internal/services"
)

const (
	DefaultBaseURL = "https://www.themealdb.com/api/json/v1/1"
	maxIngredients = 20
)

type meal struct {
	ID           string `json:"idMeal"`
	Name         string `json:"strMeal"`
	Category     string `json:"strCategory"`
	Area         string `json:"strArea"`
	Thumb        string `json:"strMealThumb"`
	Youtube      string `json:"strYoutube"`
	Instructions string `json:"strInstructions"`

	// strIngredientN / strMeasureN are flat numbered fields.
	Extra map[string]interface{} `json:"-"`
}

type mealsResponse struct {
	Meals []json.RawMessage `json:"meals"`
}

type categoriesResponse struct {
	Categories []struct {
		Name string `json:"strCategory"`
	} `json:"categories"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ListCategories(ctx context.Context) ([]string, error) {
	var resp categoriesResponse
	if err := c.get(ctx, "categories.php", nil, &resp); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(resp.Categories))
	for _, cat := range resp.Categories {
		if cat.Name != "" {
			names = append(names, cat.Name)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("categories: %w", services.ErrEmptyResult)
	}
	return names, nil
}

func (c *Client) ListCuisines(ctx context.Context) ([]string, error) {
	meals, err := c.meals(ctx, "list.php", url.Values{"a": {"list"}})
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(meals))
	for _, m := range meals {
		if m.Area != "" {
			names = append(names, m.Area)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("cuisines: %w", services.ErrEmptyResult)
	}
	return names, nil
}

func (c *Client) ListByCategory(ctx context.Context, category string) ([]models.RecipeRef, error) {
	return c.refs(ctx, "filter.php", url.Values{"c": {category}})
}

func (c *Client) ListByCuisine(ctx context.Context, cuisine string) ([]models.RecipeRef, error) {
	return c.refs(ctx, "filter.php", url.Values{"a": {cuisine}})
}

func (c *Client) SearchByName(ctx context.Context, query string) ([]models.RecipeRef, error) {
	return c.refs(ctx, "search.php", url.Values{"s": {query}})
}

func (c *Client) GetByID(ctx context.Context, id string) (*models.Recipe, error) {
	return c.recipe(ctx, "lookup.php", url.Values{"i": {id}})
}

func (c *Client) GetRandom(ctx context.Context) (*models.Recipe, error) {
	return c.recipe(ctx, "random.php", nil)
}

func (c *Client) refs(ctx context.Context, endpoint string, query url.Values) ([]models.RecipeRef, error) {
	meals, err := c.meals(ctx, endpoint, query)
	if err != nil {
		return nil, err
	}

	refs := make([]models.RecipeRef, 0, len(meals))
	for _, m := range meals {
		if m.ID == "" {
			continue
		}
		refs = append(refs, models.RecipeRef{ID: m.ID, Name: m.Name})
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("%s %s: %w", endpoint, query.Encode(), services.ErrEmptyResult)
	}
	return refs, nil
}

func (c *Client) recipe(ctx context.Context, endpoint string, query url.Values) (*models.Recipe, error) {
	meals, err := c.meals(ctx, endpoint, query)
	if err != nil {
		return nil, err
	}
	if len(meals) == 0 || meals[0].ID == "" {
		return nil, fmt.Errorf("%s %s: %w", endpoint, query.Encode(), services.ErrEmptyResult)
	}
	return meals[0].toRecipe(), nil
}

func (c *Client) meals(ctx context.Context, endpoint string, query url.Values) ([]meal, error) {
	var resp mealsResponse
	if err := c.get(ctx, endpoint, query, &resp); err != nil {
		return nil, err
	}

	meals := make([]meal, 0, len(resp.Meals))
	for _, raw := range resp.Meals {
		var m meal
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("decode %s: %v: %w", endpoint, err, services.ErrNetwork)
		}
		if err := json.Unmarshal(raw, &m.Extra); err != nil {
			return nil, fmt.Errorf("decode %s: %v: %w", endpoint, err, services.ErrNetwork)
		}
		meals = append(meals, m)
	}
	return meals, nil
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values, out interface{}) error {
	u := c.baseURL + "/" + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", endpoint, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %v: %w", endpoint, err, services.ErrNetwork)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &services.HTTPStatusError{StatusCode: resp.StatusCode, URL: u}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %v: %w", endpoint, err, services.ErrNetwork)
	}
	return nil
}

func (m meal) toRecipe() *models.Recipe {
	r := &models.Recipe{
		ID:           m.ID,
		Name:         m.Name,
		Category:     m.Category,
		Area:         m.Area,
		ImageURL:     m.Thumb,
		YoutubeURL:   m.Youtube,
		Instructions: m.Instructions,
	}
	for i := 1; i <= maxIngredients; i++ {
		name := m.field(fmt.Sprintf("strIngredient%d", i))
		if name == "" {
			continue
		}
		r.Ingredients = append(r.Ingredients, models.Ingredient{
			Name:    name,
			Measure: m.field(fmt.Sprintf("strMeasure%d", i)),
		})
	}
	return r
}

func (m meal) field(key string) string {
	s, _ := m.Extra[key].(string)
	return strings.TrimSpace(s)
}
