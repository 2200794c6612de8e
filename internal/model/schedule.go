package model

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// DaysPerWeek is the fixed length of a generated schedule.
const DaysPerWeek = 7

// MaxTaskIDLen keeps task ids short enough for inline button callback data.
const MaxTaskIDLen = 36

// ErrInvalidSchedule is returned when a schedule breaks its contract.
var ErrInvalidSchedule = errors.New("invalid schedule")

// Meals holds the four meal suggestions of a day.
type Meals struct {
	Breakfast string `json:"breakfast"`
	Lunch     string `json:"lunch"`
	Dinner    string `json:"dinner"`
	Snack     string `json:"snack"`
}

// DailyPlan is one day of the weekly schedule.
type DailyPlan struct {
	Date            string `json:"date"` // "Monday 1"
	MotivationQuote string `json:"motivationQuote"`
	Tasks           []Task `json:"tasks"`
	Meals           Meals  `json:"meals"`
}

// WeeklySchedule is the seven day plan.
type WeeklySchedule struct {
	Plans []DailyPlan `json:"plans"`
}

// SortTasks orders tasks ascending by time, keeping the relative order of equal times.
func (d *DailyPlan) SortTasks() {
	sort.SliceStable(d.Tasks, func(i, j int) bool {
		return d.Tasks[i].Time < d.Tasks[j].Time
	})
}

// InsertTask places t after every task scheduled at or before t.Time.
func (d *DailyPlan) InsertTask(t Task) {
	i := sort.Search(len(d.Tasks), func(i int) bool {
		return d.Tasks[i].Time > t.Time
	})
	d.Tasks = append(d.Tasks, Task{})
	copy(d.Tasks[i+1:], d.Tasks[i:])
	d.Tasks[i] = t
}

// TaskIndex returns the index of the task with the given id, or -1.
func (d *DailyPlan) TaskIndex(id string) int {
	for i := range d.Tasks {
		if d.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// CompletedCount returns how many tasks are done.
func (d *DailyPlan) CompletedCount() int {
	n := 0
	for _, t := range d.Tasks {
		if t.Completed {
			n++
		}
	}
	return n
}

// Progress is the rounded completion percentage. An empty day is 0.
func (d *DailyPlan) Progress() int {
	if len(d.Tasks) == 0 {
		return 0
	}
	return int(math.Round(float64(d.CompletedCount()) / float64(len(d.Tasks)) * 100))
}

// HasAlarms reports whether any task of the day will ring.
func (d *DailyPlan) HasAlarms() bool {
	for _, t := range d.Tasks {
		if t.AlarmEnabled {
			return true
		}
	}
	return false
}

// IsSorted reports whether the tasks are in non-decreasing time order.
func (d *DailyPlan) IsSorted() bool {
	return sort.SliceIsSorted(d.Tasks, func(i, j int) bool {
		return d.Tasks[i].Time < d.Tasks[j].Time
	})
}

// Day returns a pointer to the plan at index i, or nil when out of range.
func (w *WeeklySchedule) Day(i int) *DailyPlan {
	if w == nil || i < 0 || i >= len(w.Plans) {
		return nil
	}
	return &w.Plans[i]
}

// Clone returns a deep copy.
func (w *WeeklySchedule) Clone() *WeeklySchedule {
	if w == nil {
		return nil
	}
	out := &WeeklySchedule{Plans: make([]DailyPlan, len(w.Plans))}
	for i, p := range w.Plans {
		p.Tasks = append([]Task(nil), p.Tasks...)
		out.Plans[i] = p
	}
	return out
}

// Normalize sorts every day so the ordering invariant holds.
func (w *WeeklySchedule) Normalize() {
	for i := range w.Plans {
		w.Plans[i].SortTasks()
	}
}

// ReissueLongIDs replaces every task id longer than MaxTaskIDLen bytes with newID().
// It returns how many ids were replaced.
func (w *WeeklySchedule) ReissueLongIDs(newID func() string) int {
	if w == nil {
		return 0
	}
	n := 0
	for i := range w.Plans {
		for j := range w.Plans[i].Tasks {
			if len(w.Plans[i].Tasks[j].ID) > MaxTaskIDLen {
				w.Plans[i].Tasks[j].ID = newID()
				n++
			}
		}
	}
	return n
}

// Validate checks the schedule against the generation contract.
func (w *WeeklySchedule) Validate() error {
	if w == nil {
		return fmt.Errorf("%w: missing plans", ErrInvalidSchedule)
	}
	if len(w.Plans) != DaysPerWeek {
		return fmt.Errorf("%w: expected %d plans, got %d", ErrInvalidSchedule, DaysPerWeek, len(w.Plans))
	}
	for i := range w.Plans {
		if err := w.Plans[i].validate(); err != nil {
			return fmt.Errorf("%w: day %d: %v", ErrInvalidSchedule, i, err)
		}
	}
	return nil
}

func (d *DailyPlan) validate() error {
	if strings.TrimSpace(d.Date) == "" {
		return errors.New("date is required")
	}
	if strings.TrimSpace(d.MotivationQuote) == "" {
		return errors.New("motivation quote is required")
	}
	m := d.Meals
	if m.Breakfast == "" || m.Lunch == "" || m.Dinner == "" || m.Snack == "" {
		return errors.New("all four meals are required")
	}
	seen := make(map[string]struct{}, len(d.Tasks))
	for _, t := range d.Tasks {
		if t.ID == "" {
			return fmt.Errorf("task %q has no id", t.Title)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("duplicate task id %q", t.ID)
		}
		seen[t.ID] = struct{}{}
		if strings.TrimSpace(t.Title) == "" {
			return fmt.Errorf("task %s has no title", t.ID)
		}
		if !IsClock(t.Time) {
			return fmt.Errorf("task %s has bad time %q", t.ID, t.Time)
		}
		if !t.Category.Valid() {
			return fmt.Errorf("task %s has unknown category %q", t.ID, t.Category)
		}
	}
	return nil
}
