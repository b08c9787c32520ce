package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// GradeDisplay selects which label a climber sees for a route's difficulty.
type GradeDisplay string

const (
	GradeDisplayVScale     GradeDisplay = "v-scale"
	GradeDisplayDifficulty GradeDisplay = "difficulty"
)

func ParseGradeDisplay(s string) (GradeDisplay, bool) {
	switch GradeDisplay(strings.ToLower(strings.TrimSpace(s))) {
	case GradeDisplayVScale:
		return GradeDisplayVScale, true
	case GradeDisplayDifficulty:
		return GradeDisplayDifficulty, true
	default:
		return "", false
	}
}

type Route struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id" yaml:"id"`
	WallID          string    `gorm:"column:wall_id;not null;index" json:"wall_id" yaml:"wall_id"`
	Grade           string    `gorm:"column:grade;not null" json:"grade" yaml:"grade"`
	DifficultyLabel string    `gorm:"column:difficulty_label" json:"difficulty_label,omitempty" yaml:"difficulty_label"`
	Color           string    `gorm:"column:color;not null" json:"color" yaml:"color"`
	SetterName      string    `gorm:"column:setter_name" json:"setter_name" yaml:"setter_name"`
	SetDate         time.Time `gorm:"column:set_date;not null;index" json:"set_date" yaml:"set_date"`
	CreatedAt       time.Time `gorm:"not null" json:"-" yaml:"-"`
	UpdatedAt       time.Time `gorm:"not null" json:"-" yaml:"-"`
}

func (Route) TableName() string { return "route" }

// DisplayGrade returns the label for the requested display mode, falling back
// to the V grade when the route has no difficulty label.
func (r Route) DisplayGrade(display GradeDisplay) string {
	if display == GradeDisplayDifficulty && strings.TrimSpace(r.DifficultyLabel) != "" {
		return r.DifficultyLabel
	}
	return r.Grade
}

// PlaceholderRoute stands in for a route that is missing from the catalog.
func PlaceholderRoute(id uuid.UUID) Route {
	return Route{
		ID:         id,
		WallID:     "unknown",
		Grade:      "?",
		Color:      "gray",
		SetterName: "Unknown",
	}
}

// VGradeNumber returns n for grades written "Vn" (optionally with a trailing
// "+" or "-"), or -1 when the grade is not on the V scale.
func VGradeNumber(grade string) int {
	g := strings.TrimSpace(grade)
	if len(g) < 2 || (g[0] != 'V' && g[0] != 'v') {
		return -1
	}
	g = strings.TrimRight(g[1:], "+-")
	if g == "" {
		return -1
	}
	n := 0
	for _, r := range g {
		if r < '0' || r > '9' {
			return -1
		}
		n = n*10 + int(r-'0')
	}
	return n
}
