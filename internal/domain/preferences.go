package domain

import (
	"sort"
	"strings"
)

// Preference categories. The first three are mandatory.
const (
	CategoryRestrictions       = "restrictions"
	CategoryAllergies          = "allergies"
	CategoryCuisinePreferences = "cuisine_preferences"
	CategoryLikes              = "likes"
	CategoryDislikes           = "dislikes"
	CategoryCustom             = "custom"
)

// MandatoryCategories lists the categories that must be non-empty for a
// preference record to be complete, in the order the assistant asks for them.
var MandatoryCategories = []string{
	CategoryRestrictions,
	CategoryAllergies,
	CategoryCuisinePreferences,
}

// Preferences is a user's food profile.
type Preferences struct {
	Restrictions       []string `json:"restrictions"          firestore:"restrictions"`
	Allergies          []string `json:"allergies"             firestore:"allergies"`
	CuisinePreferences []string `json:"cuisine_preferences"   firestore:"cuisine_preferences"`
	Likes              []string `json:"likes,omitempty"       firestore:"likes"`
	Dislikes           []string `json:"dislikes,omitempty"    firestore:"dislikes"`
	Custom             []string `json:"custom,omitempty"      firestore:"custom"`
}

// IsKnownCategory reports whether name is one of the typed categories.
func IsKnownCategory(name string) bool {
	switch name {
	case CategoryRestrictions, CategoryAllergies, CategoryCuisinePreferences,
		CategoryLikes, CategoryDislikes, CategoryCustom:
		return true
	}
	return false
}

// list returns a pointer to the slice backing category, or nil if unknown.
func (p *Preferences) list(category string) *[]string {
	switch category {
	case CategoryRestrictions:
		return &p.Restrictions
	case CategoryAllergies:
		return &p.Allergies
	case CategoryCuisinePreferences:
		return &p.CuisinePreferences
	case CategoryLikes:
		return &p.Likes
	case CategoryDislikes:
		return &p.Dislikes
	case CategoryCustom:
		return &p.Custom
	}
	return nil
}

// Values returns the values stored under category (nil if unknown).
func (p Preferences) Values(category string) []string {
	if l := p.list(category); l != nil {
		return *l
	}
	return nil
}

// Add appends value to category unless an equal value (case-insensitive) is
// already present. Unknown categories are recorded under Custom as
// "category: value". It reports whether the record changed.
func (p *Preferences) Add(category, value string) bool {
	category = strings.ToLower(strings.TrimSpace(category))
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	l := p.list(category)
	if l == nil {
		l = &p.Custom
		value = category + ": " + value
	}
	for _, v := range *l {
		if strings.EqualFold(v, value) {
			return false
		}
	}
	*l = append(*l, value)
	return true
}

// MissingMandatory returns the mandatory categories that are empty, in ask order.
func (p Preferences) MissingMandatory() []string {
	out := make([]string, 0, len(MandatoryCategories))
	for _, c := range MandatoryCategories {
		if len(p.Values(c)) == 0 {
			out = append(out, c)
		}
	}
	return out
}

// IsComplete reports whether every mandatory category has at least one value.
func (p Preferences) IsComplete() bool { return len(p.MissingMandatory()) == 0 }

// IsEmpty reports whether no category holds any value.
func (p Preferences) IsEmpty() bool {
	return len(p.Restrictions)+len(p.Allergies)+len(p.CuisinePreferences)+
		len(p.Likes)+len(p.Dislikes)+len(p.Custom) == 0
}

// Normalize trims values, drops blanks and case-insensitive duplicates
// (keeping the first spelling), and replaces nil slices with empty ones.
func (p *Preferences) Normalize() {
	for _, c := range []string{
		CategoryRestrictions, CategoryAllergies, CategoryCuisinePreferences,
		CategoryLikes, CategoryDislikes, CategoryCustom,
	} {
		l := p.list(c)
		seen := make(map[string]struct{}, len(*l))
		out := make([]string, 0, len(*l))
		for _, v := range *l {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			k := strings.ToLower(v)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, v)
		}
		*l = out
	}
}

// SortedCopy returns a normalized copy with every category sorted; used where
// a stable rendering matters (prompts, ETags).
func (p Preferences) SortedCopy() Preferences {
	cp := Preferences{
		Restrictions:       append([]string(nil), p.Restrictions...),
		Allergies:          append([]string(nil), p.Allergies...),
		CuisinePreferences: append([]string(nil), p.CuisinePreferences...),
		Likes:              append([]string(nil), p.Likes...),
		Dislikes:           append([]string(nil), p.Dislikes...),
		Custom:             append([]string(nil), p.Custom...),
	}
	cp.Normalize()
	for _, l := range [][]string{cp.Restrictions, cp.Allergies, cp.CuisinePreferences, cp.Likes, cp.Dislikes, cp.Custom} {
		sort.Strings(l)
	}
	return cp
}
