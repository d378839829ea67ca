// Package recovery maps per-muscle-group activity history to tiered
// freshness statuses with TTL-cached results.
package recovery

import "strings"

// Category is a trackable muscle group.
type Category string

const (
	CategoryChest      Category = "chest"
	CategoryBack       Category = "back"
	CategoryShoulders  Category = "shoulders"
	CategoryArms       Category = "arms"
	CategoryCore       Category = "core"
	CategoryQuads      Category = "quads"
	CategoryHamstrings Category = "hamstrings"
	CategoryGlutes     Category = "glutes"
	CategoryCalves     Category = "calves"

	// CategoryFullBody is the aggregate tag. It expands into every
	// tracked category and never appears in status output itself.
	CategoryFullBody Category = "full_body"
)

// TrackedCategories lists the categories that get a status, in fixed
// iteration order.
func TrackedCategories() []Category {
	return []Category{
		CategoryChest,
		CategoryBack,
		CategoryShoulders,
		CategoryArms,
		CategoryCore,
		CategoryQuads,
		CategoryHamstrings,
		CategoryGlutes,
		CategoryCalves,
	}
}

var legCategories = []Category{CategoryQuads, CategoryHamstrings, CategoryGlutes, CategoryCalves}

// muscleCategories is the fixed lookup from a raw exercise muscle tag to
// one-or-more tracked categories.
var muscleCategories = map[string][]Category{
	"chest":      {CategoryChest},
	"pecs":       {CategoryChest},
	"back":       {CategoryBack},
	"lats":       {CategoryBack},
	"traps":      {CategoryBack},
	"shoulders":  {CategoryShoulders},
	"delts":      {CategoryShoulders},
	"arms":       {CategoryArms},
	"biceps":     {CategoryArms},
	"triceps":    {CategoryArms},
	"forearms":   {CategoryArms},
	"core":       {CategoryCore},
	"abs":        {CategoryCore},
	"legs":       legCategories,
	"quads":      {CategoryQuads},
	"hamstrings": {CategoryHamstrings},
	"glutes":     {CategoryGlutes},
	"calves":     {CategoryCalves},
}

// CategoriesForMuscle resolves a raw muscle tag. The full-body tag
// expands to every tracked category; unknown tags resolve to nothing.
func CategoriesForMuscle(tag string) []Category {
	normalized := strings.ToLower(strings.TrimSpace(tag))
	if normalized == string(CategoryFullBody) || normalized == "full body" {
		return TrackedCategories()
	}
	return muscleCategories[normalized]
}
