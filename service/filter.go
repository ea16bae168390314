package service

import (
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/amarkiccha/lead/model"
	"github.com/amarkiccha/lead/pkg/datetime"
)

// ApplyFilters returns the leads matching every active criterion, in their
// original order. The result is never nil.
func ApplyFilters(leads []model.Lead, criteria model.FilterCriteria) []model.Lead {
	// A Caser is stateful, so each call gets its own.
	fold := cases.Fold()
	search := fold.String(strings.TrimSpace(criteria.SearchName))
	project := criteria.Project
	if project == model.AllProjects {
		project = ""
	}

	out := make([]model.Lead, 0, len(leads))
	for _, l := range leads {
		if search != "" && !strings.Contains(fold.String(l.Name), search) {
			continue
		}
		if project != "" && l.ProjectName != project {
			continue
		}
		if criteria.Date != nil && !onDay(l, *criteria.Date) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// UniqueProjects lists the distinct non-empty project names in order of
// first appearance.
func UniqueProjects(leads []model.Lead) []string {
	seen := make(map[string]struct{})
	projects := make([]string, 0)
	for _, l := range leads {
		if l.ProjectName == "" {
			continue
		}
		if _, ok := seen[l.ProjectName]; ok {
			continue
		}
		seen[l.ProjectName] = struct{}{}
		projects = append(projects, l.ProjectName)
	}
	return projects
}

// CountOnDay counts the leads dated on day's calendar day.
func CountOnDay(leads []model.Lead, day time.Time) int {
	n := 0
	for _, l := range leads {
		if onDay(l, day) {
			n++
		}
	}
	return n
}

func onDay(l model.Lead, day time.Time) bool {
	d, ok := datetime.ParseDate(l.Date)
	return ok && datetime.SameDay(d, day)
}
