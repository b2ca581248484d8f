package state

import (
	"strings"

	"github.com/star/orbitview/internal/model"
)

// PreferredSatelliteID is selected when present, or when no satellite list
// is available yet.
const PreferredSatelliteID = "STARLINK-32713"

// himawariRule matches one satellite field against a value. Rules are tried
// in order and the first satellite matching the first matching rule wins.
type himawariRule struct {
	field string // norad | object_id | name | id
	value string
	norad int
}

var himawariPriority = []himawariRule{
	// NORAD catalog numbers: Himawari-9, then Himawari-8.
	{field: "norad", norad: 41836},
	{field: "norad", norad: 40267},

	// COSPAR designators.
	{field: "object_id", value: "2016-064a"},
	{field: "object_id", value: "2014-060a"},

	// Catalog names.
	{field: "name", value: "himawari-9"},
	{field: "name", value: "himawari-8"},

	// Free-form spellings.
	{field: "id", value: "himawari-9"},
	{field: "id", value: "himawari9"},
	{field: "name", value: "himawari 9"},
	{field: "id", value: "himawari-8"},
	{field: "id", value: "himawari8"},
	{field: "name", value: "himawari 8"},

	// Anything containing "himawari".
	{field: "id", value: "himawari"},
	{field: "name", value: "himawari"},
}

func (r himawariRule) match(s model.Satellite) bool {
	var v string
	switch r.field {
	case "norad":
		return s.NoradID != 0 && s.NoradID == r.norad
	case "object_id":
		v = s.ObjectID
	case "name":
		v = s.Name
	case "id":
		v = s.ID
	}
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return false
	}
	if r.value == "himawari" {
		return strings.Contains(v, r.value)
	}
	return v == r.value
}

// DefaultSatelliteID picks the satellite to show when nothing is selected:
// the configured ID, then STARLINK-32713 if listed, then the first Himawari
// match by priority, then the first satellite. With no satellites listed it
// returns PreferredSatelliteID.
func DefaultSatelliteID(satellites []model.Satellite, configured string) string {
	if configured = strings.TrimSpace(configured); configured != "" {
		return configured
	}
	if len(satellites) == 0 {
		return PreferredSatelliteID
	}

	preferred := strings.ToLower(PreferredSatelliteID)
	for _, s := range satellites {
		if strings.ToLower(s.ID) == preferred || strings.ToLower(s.Name) == preferred {
			return s.ID
		}
	}

	for _, rule := range himawariPriority {
		for _, s := range satellites {
			if rule.match(s) {
				return s.ID
			}
		}
	}

	return satellites[0].ID
}
