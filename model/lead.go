package model

import (
	"time"
)

// Lead is a captured contact record in canonical form. Every field is
// present; missing source values are empty strings.
type Lead struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ProjectName string `json:"projectName"`
	PhoneNumber string `json:"phoneNumber"`
	Date        string `json:"date"` // as stored by the sheet
	Time        string `json:"time"` // as stored by the sheet, may be empty
}

// RawRecord is one row as returned by the spreadsheet service, before any
// field aliases are resolved.
type RawRecord map[string]any

// AllProjects is the project filter value that matches every lead.
const AllProjects = "all"

// FilterCriteria narrows a lead list. The zero value matches everything.
type FilterCriteria struct {
	SearchName string
	Project    string     // AllProjects or "" for no filter
	Date       *time.Time // calendar day; nil for no filter
}

// Active reports whether any criterion would exclude a lead.
func (c FilterCriteria) Active() bool {
	return c.SearchName != "" || (c.Project != "" && c.Project != AllProjects) || c.Date != nil
}
