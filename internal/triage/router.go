package triage

import (
	"github.com/smartcity/governance/internal/domain"
)

// Router picks the least-loaded department able to handle a category
type Router struct {
	directory map[domain.Category][]string
}

// NewRouter creates a router over a category -> departments directory
func NewRouter(directory map[domain.Category][]string) *Router {
	d := make(map[domain.Category][]string, len(directory))
	for category, departments := range directory {
		d[category] = append([]string(nil), departments...)
	}
	return &Router{directory: d}
}

// Route returns the department with the fewest pending requests among those
// mapped to category (every department in load when the category has no
// mapping). Ties go to the lexicographically smallest name. With an empty
// load, or no candidate present in it, suggested is returned unchanged.
func (r *Router) Route(category domain.Category, suggested string, load domain.DepartmentLoad) string {
	if len(load) == 0 {
		return suggested
	}

	candidates := r.directory[category]
	if len(candidates) == 0 {
		candidates = make([]string, 0, len(load))
		for name := range load {
			candidates = append(candidates, name)
		}
	}

	var (
		best      string
		bestCount int
		found     bool
	)
	for _, name := range candidates {
		count, ok := load[name]
		if !ok {
			continue
		}
		if !found || count < bestCount || (count == bestCount && name < best) {
			best, bestCount, found = name, count, true
		}
	}

	if !found {
		return suggested
	}
	return best
}

// Departments returns the departments mapped to a category
func (r *Router) Departments(category domain.Category) []string {
	return append([]string(nil), r.directory[category]...)
}
