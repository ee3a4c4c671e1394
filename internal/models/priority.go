package models

// PriorityLevel describes how a priority value is named and colored in every view.
type PriorityLevel struct {
	Level int    `json:"level"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

const (
	PriorityLow      = 1
	PriorityNormal   = 2
	PriorityMedium   = 3
	PriorityHigh     = 4
	PriorityCritical = 5
)

// Priorities is the lookup table shared by the list view, month grid and forms.
var Priorities = []PriorityLevel{
	{Level: PriorityLow, Name: "Low", Color: "#10B981"},
	{Level: PriorityNormal, Name: "Normal", Color: "#3B82F6"},
	{Level: PriorityMedium, Name: "Medium", Color: "#F59E0B"},
	{Level: PriorityHigh, Name: "High", Color: "#EF4444"},
	{Level: PriorityCritical, Name: "Critical", Color: "#7C2D12"},
}

var unknownPriority = PriorityLevel{Name: "Unknown", Color: "#6B7280"}

// PriorityInfo returns the table entry for level, or a gray "Unknown" entry.
func PriorityInfo(level int) PriorityLevel {
	for _, p := range Priorities {
		if p.Level == level {
			return p
		}
	}
	p := unknownPriority
	p.Level = level
	return p
}

// ValidPriority reports whether level is one of the five defined levels.
func ValidPriority(level int) bool {
	return level >= PriorityLow && level <= PriorityCritical
}
