package model

import (
	"strconv"
	"strings"
)

// Category groups tasks by area of life.
type Category string

const (
	CategoryWork     Category = "work"
	CategoryGym      Category = "gym"
	CategoryFamily   Category = "family"
	CategoryPersonal Category = "personal"
	CategoryMedical  Category = "medical"
	CategoryMeal     Category = "meal"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryWork,
	CategoryGym,
	CategoryFamily,
	CategoryPersonal,
	CategoryMedical,
	CategoryMeal,
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// CategoryStrings returns the categories as plain strings (schema enums, keyboards).
func CategoryStrings() []string {
	out := make([]string, len(Categories))
	for i, c := range Categories {
		out[i] = string(c)
	}
	return out
}

// Task is a single scheduled item within a day.
type Task struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Time         string   `json:"time"` // HH:MM, 24h, zero padded
	Category     Category `json:"category"`
	Completed    bool     `json:"completed"`
	AlarmEnabled bool     `json:"alarmEnabled"`
	Description  string   `json:"description,omitempty"`
}

// IsClock reports whether s is a zero padded 24h HH:MM string.
func IsClock(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	h, err := strconv.Atoi(s[:2])
	if err != nil || h < 0 || h > 23 {
		return false
	}
	m, err := strconv.Atoi(s[3:])
	if err != nil || m < 0 || m > 59 {
		return false
	}
	return !strings.ContainsAny(s, "+-")
}
