package search

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tbourn/food-chat-backend/internal/domain"
)

// ---------- tiny io.Reader that always errors ----------
type boomReader struct{}

func (boomReader) Read(_ []byte) (int, error) { return 0, errors.New("boom") }

const sampleCatalog = `# Dishes

Some prose that is not a table row.

| Dish | Cuisine | Tags | Description |
|:-----|:-------:|------|------------:|
| Dal Tadka | Indian | vegetarian, gluten-free | Yellow lentils tempered with cumin and garlic |
| Chana Masala | Indian | vegan; vegetarian | Chickpeas in a tangy tomato gravy |
| Palak Paneer | Indian | vegetarian, dairy | Cottage cheese in spinach gravy |
| Butter Chicken | Indian | gluten-free, dairy | Chicken in tomato, cream and butter |
| Pasta Arrabbiata | Italian | vegan, vegetarian, gluten | Penne in spicy tomato sauce |
| Gluten-free Brownie | Dessert | vegetarian, gluten-free, nuts | Fudgy brownie with walnuts |
|  | Orphan | vegan | row without a name |
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "dishes.md")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp: %v", err)
	}
	return p
}

func names(ms []Match) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Dish.Name
	}
	return out
}

func contains(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}

// ---------- Options + defaultConfig ----------
func TestOptionsAndDefaults(t *testing.T) {
	def := defaultConfig()
	if def.cuisineBonus != 0.25 || def.maxDishes != 0 || def.stopwords == nil {
		t.Fatalf("defaultConfig unexpected: %#v", def)
	}

	cfg := def
	WithStopwords([]string{"  The ", "", "An"})(&cfg)
	if _, ok := cfg.stopwords["the"]; !ok {
		t.Fatalf("WithStopwords failed: %#v", cfg.stopwords)
	}
	if _, ok := cfg.stopwords["recommend"]; ok {
		t.Fatalf("WithStopwords should replace the defaults")
	}
	WithStopwords(nil)(&cfg)
	if len(cfg.stopwords) != 2 {
		t.Fatalf("empty stopwords should be a no-op")
	}

	WithMaxDishes(2)(&cfg)
	WithMaxDishes(0)(&cfg)
	if cfg.maxDishes != 2 {
		t.Fatalf("WithMaxDishes: %d", cfg.maxDishes)
	}
	WithCuisineBonus(0.5)(&cfg)
	WithCuisineBonus(-1)(&cfg)
	if cfg.cuisineBonus != 0.5 {
		t.Fatalf("WithCuisineBonus: %v", cfg.cuisineBonus)
	}
}

// ---------- Parsing ----------
func TestParseCatalog_SkipsHeaderSeparatorAndProse(t *testing.T) {
	c, err := ParseCatalog(strings.NewReader(sampleCatalog))
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	if c.Len() != 6 {
		t.Fatalf("Len = %d; want 6 (%v)", c.Len(), c.Dishes())
	}
	first := c.Dishes()[0]
	if first.Name != "Dal Tadka" || first.Cuisine != "Indian" {
		t.Fatalf("first dish = %+v", first)
	}
	if len(first.Tags) != 2 || first.Tags[1] != "gluten-free" {
		t.Fatalf("tags = %v", first.Tags)
	}
	if got := c.Dishes()[1].Tags; len(got) != 2 || got[0] != "vegan" {
		t.Fatalf("semicolon tags = %v", got)
	}
}

func TestParseCatalog_ReaderError(t *testing.T) {
	c, err := ParseCatalog(boomReader{})
	if err == nil {
		t.Fatalf("expected error")
	}
	if c == nil || c.Len() != 0 {
		t.Fatalf("expected empty usable catalog")
	}
}

func TestLoadCatalog_SuccessAndMissingFile(t *testing.T) {
	c, err := LoadCatalog(writeCatalog(t, sampleCatalog), WithMaxDishes(3))
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if c.Len() != 3 {
		t.Fatalf("WithMaxDishes not applied: %d", c.Len())
	}

	c, err = LoadCatalog(filepath.Join(t.TempDir(), "nope.md"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	if c.Len() != 0 || c.Recommend("dal", domain.Preferences{}, 3) != nil {
		t.Fatalf("missing file must yield an empty catalog")
	}
}

func TestNilCatalogIsSafe(t *testing.T) {
	var c *Catalog
	if c.Len() != 0 || c.Dishes() != nil || c.Recommend("x", domain.Preferences{}, 1) != nil {
		t.Fatalf("nil catalog should behave as empty")
	}
}

func TestDishString(t *testing.T) {
	d := Dish{Name: "Poha", Cuisine: "Indian", Description: "Flattened rice"}
	if got := d.String(); got != "Poha (Indian): Flattened rice" {
		t.Fatalf("String = %q", got)
	}
	if got := (Dish{Name: "Poha"}).String(); got != "Poha" {
		t.Fatalf("String = %q", got)
	}
}

// ---------- Recommend ----------
func TestRecommend_QueryRanking(t *testing.T) {
	c, _ := ParseCatalog(strings.NewReader(sampleCatalog))
	res := c.Recommend("something with lentils and cumin", domain.Preferences{}, 2)
	if len(res) != 2 || res[0].Dish.Name != "Dal Tadka" {
		t.Fatalf("Recommend = %v", names(res))
	}
	if res[0].Score <= res[1].Score {
		t.Fatalf("scores not descending: %v", res)
	}
}

func TestRecommend_DefaultKAndEmptyQuery(t *testing.T) {
	c, _ := ParseCatalog(strings.NewReader(sampleCatalog))
	res := c.Recommend("", domain.Preferences{}, 0)
	if len(res) != 3 {
		t.Fatalf("default k should be 3, got %d", len(res))
	}
	// With no signal at all, ties break by shorter text then name.
	again := c.Recommend("", domain.Preferences{}, 0)
	for i := range res {
		if res[i].Dish.Name != again[i].Dish.Name {
			t.Fatalf("ordering not deterministic")
		}
	}
}

func TestRecommend_DietRestrictions(t *testing.T) {
	c, _ := ParseCatalog(strings.NewReader(sampleCatalog))

	vegan := names(c.Recommend("", domain.Preferences{Restrictions: []string{"Vegan"}}, 10))
	if len(vegan) != 2 || !contains(vegan, "Chana Masala") || !contains(vegan, "Pasta Arrabbiata") {
		t.Fatalf("vegan = %v", vegan)
	}

	veg := names(c.Recommend("", domain.Preferences{Restrictions: []string{"vegetarian"}}, 10))
	if contains(veg, "Butter Chicken") || len(veg) != 5 {
		t.Fatalf("vegetarian = %v", veg)
	}

	gf := names(c.Recommend("", domain.Preferences{Restrictions: []string{"gluten free"}}, 10))
	if contains(gf, "Pasta Arrabbiata") || !contains(gf, "Dal Tadka") {
		t.Fatalf("gluten free = %v", gf)
	}

	noChicken := names(c.Recommend("", domain.Preferences{Restrictions: []string{"no chicken"}}, 10))
	if contains(noChicken, "Butter Chicken") || len(noChicken) != 5 {
		t.Fatalf("no chicken = %v", noChicken)
	}
}

func TestRecommend_Allergies(t *testing.T) {
	c, _ := ParseCatalog(strings.NewReader(sampleCatalog))

	dairy := names(c.Recommend("", domain.Preferences{Allergies: []string{"dairy"}}, 10))
	if contains(dairy, "Palak Paneer") || contains(dairy, "Butter Chicken") {
		t.Fatalf("dairy allergy = %v", dairy)
	}

	nuts := names(c.Recommend("", domain.Preferences{Allergies: []string{"nuts"}}, 10))
	if contains(nuts, "Gluten-free Brownie") {
		t.Fatalf("nut allergy = %v", nuts)
	}

	// "gluten-free" in a name or tag must not count as mentioning gluten.
	gluten := names(c.Recommend("", domain.Preferences{Allergies: []string{"gluten"}}, 10))
	if !contains(gluten, "Dal Tadka") || contains(gluten, "Pasta Arrabbiata") {
		t.Fatalf("gluten allergy = %v", gluten)
	}
	if !contains(gluten, "Gluten-free Brownie") {
		t.Fatalf("gluten-free dish wrongly excluded: %v", gluten)
	}

	none := names(c.Recommend("", domain.Preferences{Allergies: []string{"none"}}, 10))
	if len(none) != 6 {
		t.Fatalf("'none' must not filter anything: %v", none)
	}
}

func TestRecommend_CuisineBonusAndLikes(t *testing.T) {
	c, _ := ParseCatalog(strings.NewReader(sampleCatalog))
	res := c.Recommend("", domain.Preferences{CuisinePreferences: []string{"italian"}}, 1)
	if len(res) != 1 || res[0].Dish.Name != "Pasta Arrabbiata" {
		t.Fatalf("cuisine bonus: %v", names(res))
	}

	res = c.Recommend("", domain.Preferences{Likes: []string{"spinach"}}, 1)
	if len(res) != 1 || res[0].Dish.Name != "Palak Paneer" {
		t.Fatalf("likes bonus: %v", names(res))
	}

	res = c.Recommend("", domain.Preferences{Dislikes: []string{"chickpeas"}}, 10)
	if contains(names(res), "Chana Masala") {
		t.Fatalf("dislike not excluded: %v", names(res))
	}
}

func TestRecommend_Concurrent(t *testing.T) {
	c, _ := ParseCatalog(strings.NewReader(sampleCatalog))
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			_ = c.Recommend("tomato", domain.Preferences{Restrictions: []string{"vegetarian"}}, 3)
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}

func TestShippedCatalogParses(t *testing.T) {
	c, err := LoadCatalog(filepath.Join("..", "..", "data", "dishes.md"))
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if c.Len() < 20 {
		t.Fatalf("shipped catalog too small: %d", c.Len())
	}
	res := c.Recommend("", domain.Preferences{
		Restrictions:       []string{"vegetarian"},
		Allergies:          []string{"none"},
		CuisinePreferences: []string{"indian"},
	}, 3)
	if len(res) != 3 {
		t.Fatalf("expected 3 matches, got %v", names(res))
	}
	for _, m := range res {
		if m.Dish.Cuisine != "Indian" {
			t.Fatalf("expected Indian dishes first, got %v", names(res))
		}
	}
}
