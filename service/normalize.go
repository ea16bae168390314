package service

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/amarkiccha/lead/model"
)

// Source field aliases, highest priority first.
var (
	idKeys      = []string{"id", "_id"}
	projectKeys = []string{"projectName", "project_name", "project"}
	phoneKeys   = []string{"phoneNumber", "phone_number", "phone"}
)

// Normalize maps a raw sheet row to a canonical Lead. It never fails: any
// field it cannot resolve becomes an empty string, and a missing id is
// derived from the row's position in the batch.
func Normalize(raw model.RawRecord, index int) model.Lead {
	id := firstText(raw, idKeys...)
	if id == "" {
		id = fmt.Sprintf("lead-%d", index)
	}
	return model.Lead{
		ID:          id,
		Name:        firstText(raw, "name"),
		ProjectName: firstText(raw, projectKeys...),
		PhoneNumber: firstText(raw, phoneKeys...),
		Date:        firstText(raw, "date"),
		Time:        firstText(raw, "time"),
	}
}

// NormalizeAll normalizes a batch, using each row's index for synthesized ids.
func NormalizeAll(raws []model.RawRecord) []model.Lead {
	leads := make([]model.Lead, len(raws))
	for i, raw := range raws {
		leads[i] = Normalize(raw, i)
	}
	return leads
}

func firstText(raw model.RawRecord, keys ...string) string {
	for _, key := range keys {
		if s := text(raw[key]); s != "" {
			return s
		}
	}
	return ""
}

// text renders a decoded JSON scalar. Objects, arrays and null count as absent.
func text(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}
