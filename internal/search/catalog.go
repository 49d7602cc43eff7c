package search

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/tbourn/food-chat-backend/internal/domain"
)

// Dish is one catalog row.
type Dish struct {
	Name        string
	Cuisine     string
	Tags        []string
	Description string
}

// String renders the dish as a single suggestion line.
func (d Dish) String() string {
	var b strings.Builder
	b.WriteString(d.Name)
	if d.Cuisine != "" {
		b.WriteString(" (")
		b.WriteString(d.Cuisine)
		b.WriteString(")")
	}
	if d.Description != "" {
		b.WriteString(": ")
		b.WriteString(d.Description)
	}
	return b.String()
}

// Catalog is an immutable, ranked dish index. The zero value is an empty
// catalog and is safe to use.
type Catalog struct {
	cfg     config
	entries []entry
}

// LoadCatalog reads the Markdown table at path. On a read error it returns
// an empty (usable) catalog together with the error.
func LoadCatalog(path string, opts ...Option) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return NewCatalog(nil, opts...), err
	}
	return ParseCatalog(bytes.NewReader(b), opts...)
}

// ParseCatalog builds a catalog from table rows "| Dish | Cuisine | Tags |
// Description |". Header and separator rows are skipped, as is any line that
// is not a table row.
func ParseCatalog(r io.Reader, opts ...Option) (*Catalog, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var dishes []Dish
	for sc.Scan() {
		if d, ok := parseRow(sc.Text()); ok {
			dishes = append(dishes, d)
		}
	}
	if err := sc.Err(); err != nil {
		return NewCatalog(nil, opts...), err
	}
	return NewCatalog(dishes, opts...), nil
}

// NewCatalog indexes dishes directly.
func NewCatalog(dishes []Dish, opts ...Option) *Catalog {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	entries := make([]entry, 0, len(dishes))
	for _, d := range dishes {
		d.Name = normalizeWhitespace(d.Name)
		if d.Name == "" {
			continue
		}
		d.Cuisine = normalizeWhitespace(d.Cuisine)
		d.Description = normalizeWhitespace(d.Description)
		d.Tags = normalizeTags(d.Tags)

		text := d.Name + " " + d.Cuisine + " " + strings.Join(d.Tags, " ") + " " + d.Description
		tags := make(map[string]struct{}, len(d.Tags))
		for _, t := range d.Tags {
			tags[t] = struct{}{}
		}
		entries = append(entries, entry{
			dish:        d,
			tokens:      tokenize(text, cfg.stopwords),
			ingredients: tokenize(freeRE.ReplaceAllString(d.Name+" "+d.Description, " "), nil),
			tags:        tags,
			textLen:     utf8.RuneCountInString(text),
		})
		if cfg.maxDishes > 0 && len(entries) >= cfg.maxDishes {
			break
		}
	}
	return &Catalog{cfg: cfg, entries: entries}
}

// Len reports the number of indexed dishes.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Dishes returns the indexed dishes in file order.
func (c *Catalog) Dishes() []Dish {
	if c == nil {
		return nil
	}
	out := make([]Dish, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.dish
	}
	return out
}

// Recommend returns up to k dishes (3 when k <= 0) compatible with prefs,
// best first. Dishes that break a dietary restriction, mention an allergen,
// or mention a dislike are never returned.
func (c *Catalog) Recommend(query string, prefs domain.Preferences, k int) []Match {
	if c == nil {
		return nil
	}
	return rank(c.entries, c.cfg, query, newFilterSet(prefs), k)
}

// ----------------------------------------------------------------------------
// Parsing

// freeRE matches "gluten-free", "dairy free" and similar so that a dish
// advertising the absence of an allergen is not excluded for it.
var freeRE = regexp.MustCompile(`(?i)\p{L}+[- ]free\b`)

func parseRow(line string) (Dish, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "|") || !strings.HasSuffix(line, "|") || len(line) < 2 {
		return Dish{}, false
	}
	cols := strings.Split(strings.Trim(line, "|"), "|")
	cells := make([]string, 0, len(cols))
	allSep := true
	for _, c := range cols {
		cell := strings.TrimSpace(c)
		cells = append(cells, cell)
		tmp := strings.NewReplacer(":", "", "-", "").Replace(cell)
		if strings.TrimSpace(tmp) != "" {
			allSep = false
		}
	}
	if allSep || len(cells) < 2 || cells[0] == "" {
		return Dish{}, false
	}
	if strings.EqualFold(cells[0], "dish") || strings.EqualFold(cells[0], "name") {
		return Dish{}, false
	}
	d := Dish{Name: cells[0], Cuisine: cells[1]}
	if len(cells) > 2 {
		d.Tags = strings.FieldsFunc(cells[2], func(r rune) bool { return r == ',' || r == ';' })
	}
	if len(cells) > 3 {
		d.Description = strings.Join(cells[3:], " ")
	}
	return d, true
}

func normalizeTags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, t := range in {
		t = strings.ToLower(normalizeWhitespace(t))
		t = strings.ReplaceAll(t, " ", "-")
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ----------------------------------------------------------------------------
// Preference filters

// dietTags are restrictions satisfied only by dishes carrying the tag.
var dietTags = map[string][]string{
	"vegetarian":  {"vegetarian", "vegan"},
	"veg":         {"vegetarian", "vegan"},
	"vegan":       {"vegan"},
	"gluten-free": {"gluten-free"},
	"dairy-free":  {"dairy-free", "vegan"},
	"jain":        {"jain"},
	"eggless":     {"eggless", "vegan"},
}

// allergenSynonyms widens an allergy to the ingredient words that imply it.
var allergenSynonyms = map[string][]string{
	"nut":       {"nut", "nuts", "peanut", "peanuts", "cashew", "cashews", "almond", "almonds", "walnut", "pistachio"},
	"nuts":      {"nut", "nuts", "peanut", "peanuts", "cashew", "cashews", "almond", "almonds", "walnut", "pistachio"},
	"peanut":    {"peanut", "peanuts"},
	"peanuts":   {"peanut", "peanuts"},
	"dairy":     {"dairy", "milk", "paneer", "ghee", "cream", "yogurt", "curd", "cheese", "butter", "mozzarella", "parmesan"},
	"lactose":   {"dairy", "milk", "paneer", "cream", "yogurt", "curd", "cheese"},
	"milk":      {"milk", "dairy", "paneer", "cream", "cheese"},
	"gluten":    {"gluten", "wheat", "maida", "atta", "bread", "pasta", "naan", "noodles"},
	"wheat":     {"wheat", "maida", "atta", "bread", "naan"},
	"egg":       {"egg", "eggs"},
	"eggs":      {"egg", "eggs"},
	"shellfish": {"shellfish", "prawn", "prawns", "shrimp", "crab", "lobster"},
	"soy":       {"soy", "tofu", "soya"},
	"sesame":    {"sesame", "til"},
}

// negationWords are dropped from free-text restrictions such as "no pork".
var negationWords = map[string]struct{}{
	"no": {}, "not": {}, "avoid": {}, "without": {}, "free": {}, "dont": {},
	"don": {}, "t": {}, "eat": {}, "food": {}, "foods": {}, "allergy": {},
	"allergies": {}, "allergic": {}, "to": {}, "none": {}, "any": {},
}

type filterSet struct {
	requireAny [][]string          // each inner slice: dish must carry one of these tags
	banned     map[string]struct{} // restriction and dislike words
	allergens  map[string]struct{}
	cuisines   map[string]struct{}
	liked      map[string]struct{}
}

func newFilterSet(p domain.Preferences) filterSet {
	f := filterSet{
		banned:    map[string]struct{}{},
		allergens: map[string]struct{}{},
		cuisines:  map[string]struct{}{},
		liked:     map[string]struct{}{},
	}
	for _, r := range p.Restrictions {
		key := strings.ReplaceAll(strings.ToLower(normalizeWhitespace(r)), " ", "-")
		if tags, ok := dietTags[key]; ok {
			f.requireAny = append(f.requireAny, tags)
			continue
		}
		for w := range tokenize(r, negationWords) {
			f.banned[w] = struct{}{}
		}
	}
	for _, d := range p.Dislikes {
		for w := range tokenize(d, negationWords) {
			f.banned[w] = struct{}{}
		}
	}
	for _, a := range p.Allergies {
		for w := range tokenize(a, negationWords) {
			if syn, ok := allergenSynonyms[w]; ok {
				for _, s := range syn {
					f.allergens[s] = struct{}{}
				}
				continue
			}
			f.allergens[w] = struct{}{}
		}
	}
	for _, c := range p.CuisinePreferences {
		if c = strings.ToLower(normalizeWhitespace(c)); c != "" {
			f.cuisines[c] = struct{}{}
		}
	}
	for _, l := range p.Likes {
		for w := range tokenize(l, negationWords) {
			f.liked[w] = struct{}{}
		}
	}
	return f
}

func (f filterSet) allows(e *entry) bool {
	for _, anyOf := range f.requireAny {
		ok := false
		for _, t := range anyOf {
			if _, has := e.tags[t]; has {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return !e.mentions(f.banned) && !e.mentions(f.allergens)
}

// mentions reports whether any word in set appears in the dish's ingredient
// text or as a whole tag.
func (e *entry) mentions(set map[string]struct{}) bool {
	if len(set) == 0 {
		return false
	}
	if overlap(set, e.ingredients) > 0 {
		return true
	}
	for w := range set {
		if _, has := e.tags[w]; has {
			return true
		}
	}
	return false
}

func (f filterSet) prefersCuisine(e *entry) bool {
	if len(f.cuisines) == 0 {
		return false
	}
	_, ok := f.cuisines[strings.ToLower(e.dish.Cuisine)]
	return ok
}

func (f filterSet) likes(e *entry) bool {
	return overlap(f.liked, e.tokens) > 0
}
