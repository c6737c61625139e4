package model

import (
	"bytes"
	"encoding/json"

	"gorm.io/datatypes"
)

// StatusLive marks routes that are visible in the app. The status column is
// text in the legacy schema, so the constant is a string, not a number.
const StatusLive = "1"

// Route mirrors the route table of the topo database. Only the columns the
// extraction pipeline touches are mapped; the table has many more.
type Route struct {
	ID          int64          `gorm:"column:id;primaryKey" json:"id"`
	Description datatypes.JSON `gorm:"column:description;type:jsonb" json:"description"`
	Activities  datatypes.JSON `gorm:"column:activities;type:jsonb" json:"activities"`
	Status      string         `gorm:"column:status" json:"status"`
	AiCotations datatypes.JSON `gorm:"column:ai_cotations;type:jsonb" json:"ai_cotations"`
}

// TableName keeps gorm pointed at the legacy singular table name.
func (Route) TableName() string {
	return "route"
}

// IsLive reports whether the route is visible in the app.
func (r *Route) IsLive() bool {
	return r.Status == StatusLive
}

// HasGradeData reports whether the route already carries extraction output.
// Years of schema drift left several shapes of "nothing here" in the
// ai_cotations column: NULL, empty string, '[]', '{}', 'null', '""', and the
// current object form with an empty cotations array. All of them are
// uniformly treated as absent so skip policies behave the same everywhere.
// An inconclusive result (ambiguous, no grades) is also absent: those routes
// stay eligible for reprocessing.
func (r *Route) HasGradeData() bool {
	trimmed := bytes.TrimSpace(r.AiCotations)
	switch string(trimmed) {
	case "", "[]", "{}", "null", `""`:
		return false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		// Legacy array form, or something unexpected. Either way it is
		// content we must not overwrite silently.
		return true
	}

	raw, ok := fields["cotations"]
	if !ok {
		// Legacy mapping form keyed directly by grade tokens.
		return true
	}

	var cotations []Cotation
	if err := json.Unmarshal(raw, &cotations); err != nil {
		return true
	}
	return len(cotations) > 0
}
