package service

import (
	"cmp"
	"slices"

	"github.com/amarkiccha/lead/model"
	"github.com/amarkiccha/lead/pkg/datetime"
)

type keyedLead struct {
	lead model.Lead
	key  int64
}

// SortByRecency returns a copy of leads ordered most recent first by their
// combined date and time. Leads with equal keys, including every lead whose
// date could not be parsed, keep their input order.
func SortByRecency(leads []model.Lead) []model.Lead {
	keyed := make([]keyedLead, len(leads))
	for i, l := range leads {
		keyed[i] = keyedLead{lead: l, key: datetime.ResolveTimestamp(l.Date, l.Time)}
	}

	slices.SortStableFunc(keyed, func(a, b keyedLead) int {
		return cmp.Compare(b.key, a.key)
	})

	out := make([]model.Lead, len(keyed))
	for i, k := range keyed {
		out[i] = k.lead
	}
	return out
}
