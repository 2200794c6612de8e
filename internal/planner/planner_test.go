package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"synclife/internal/model"
)

func TestParseHoursRange(t *testing.T) {
	cases := []struct {
		in         string
		start, end int
	}{
		{"9 AM - 5 PM", 9 * 60, 17 * 60},
		{"9am-5pm", 9 * 60, 17 * 60},
		{"09:00-17:00", 9 * 60, 17 * 60},
		{"9-5", 9 * 60, 17 * 60},
		{"Standard 9-5", 9 * 60, 17 * 60},
		{"8:30 a.m. to 4:45 p.m.", 8*60 + 30, 16*60 + 45},
		{"12 PM – 8 PM", 12 * 60, 20 * 60},
		{"22:00-06:00", 22 * 60, 6 * 60},
		{"9:00-5:30", 9 * 60, 17*60 + 30},
		{"9am-5", 9 * 60, 17 * 60},
		{"9 AM - 5:30", 9 * 60, 17*60 + 30},
		{"08:00-04:00", 8 * 60, 4 * 60},
		{"9pm-5", 21 * 60, 5 * 60},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseHoursRange(tc.in)
			require.NoError(t, err)
			assert.Equal(t, HoursRange{Start: tc.start, End: tc.end}, got)
		})
	}

	for _, bad := range []string{"", "flexible", "9", "25:00-26:00", "13pm-5pm", "9:75-10"} {
		_, err := ParseHoursRange(bad)
		assert.Error(t, err, bad)
	}
}

func TestHoursRangeContains(t *testing.T) {
	day := HoursRange{Start: 9 * 60, End: 17 * 60}
	assert.True(t, day.Contains(9*60))
	assert.True(t, day.Contains(15*60+30))
	assert.True(t, day.Contains(17*60))
	assert.False(t, day.Contains(17*60+1))
	assert.Equal(t, "09:00-17:00", day.String())

	night := HoursRange{Start: 22 * 60, End: 6 * 60}
	assert.True(t, night.Contains(23*60))
	assert.True(t, night.Contains(5*60))
	assert.False(t, night.Contains(12*60))
}

func workingParent() *model.Profile {
	return &model.Profile{
		Name:            "Sam",
		MotivationStyle: model.MotivationAffirmation,
		Ethnicity:       "Nigerian",
		IsWorking:       true,
		WorkHours:       "9 AM - 5 PM",
		HasKids:         true,
		KidsDetails: &model.KidsDetails{
			Count:           1,
			SchoolStart:     "08:30",
			SchoolEnd:       "15:30",
			ChildActivities: []string{""},
		},
	}
}

func TestBuildRequestEncodesPickupConflict(t *testing.T) {
	req := BuildRequest(workingParent())

	require.True(t, req.HasConflictInstruction())
	require.NotNil(t, req.Conflict)
	assert.False(t, req.Conflict.Assumed)
	assert.Contains(t, req.Prompt, "Arrange pick up of child")
	assert.Contains(t, req.Prompt, "task at 15:30")
	assert.Contains(t, req.Prompt, "travel time")
}

func TestBuildRequestNoConflictOutsideWorkHours(t *testing.T) {
	p := workingParent()
	p.KidsDetails.SchoolEnd = "17:30"
	req := BuildRequest(p)
	assert.False(t, req.HasConflictInstruction())
	assert.Nil(t, req.Conflict)
	// The general guidance is still present for parents.
	assert.Contains(t, req.Prompt, "CRITICAL SCHEDULING LOGIC")

	p = workingParent()
	p.IsWorking = false
	assert.False(t, BuildRequest(p).HasConflictInstruction())
}

func TestBuildRequestDefaultsAndUnparsedHours(t *testing.T) {
	p := workingParent()
	p.WorkHours = ""
	req := BuildRequest(p)
	assert.True(t, req.HasConflictInstruction())
	assert.Contains(t, req.Prompt, "Hours: Standard 9-5.")

	p.WorkHours = "whenever the boss calls"
	req = BuildRequest(p)
	require.True(t, req.HasConflictInstruction())
	assert.True(t, req.Conflict.Assumed)
}

func TestBuildRequestMandatedContent(t *testing.T) {
	p := workingParent()
	p.MotivationStyle = model.MotivationAggressive
	p.IsStudying = true
	p.GoesToGym = true
	p.HasReligion = true
	p.ReligionDetails = &model.ReligionDetails{WorshipDays: []string{"Fri"}, PrayerTimes: []string{"05:30", "13:00"}}
	p.KidsDetails.SetCount(2)
	p.KidsDetails.SetActivity(1, "Piano")

	req := BuildRequest(p)
	for _, want := range []string{
		"6 AM to 10 PM",
		"ethnicity",
		"Ethnicity: Nigerian",
		"Aggressive/Hardcore",
		`"alarmEnabled" to true`,
		"Study goal/hours: At least 1-2 hours daily.",
		"Yes, user likes to go to the gym.",
		"Worship days: Fri.",
		"05:30, 13:00",
		"Child 2: Piano",
		`"Monday 1"`,
	} {
		assert.Contains(t, req.Prompt, want)
	}
}

func TestScheduleSchema(t *testing.T) {
	s := ScheduleSchema()
	assert.Equal(t, []string{"plans"}, s.Required)

	plans := s.Properties["plans"]
	require.NotNil(t, plans)
	assert.Equal(t, genai.TypeArray, plans.Type)
	assert.Equal(t, int64(7), *plans.MinItems)
	assert.Equal(t, int64(7), *plans.MaxItems)

	day := plans.Items
	assert.ElementsMatch(t, []string{"date", "motivationQuote", "tasks", "meals"}, day.Required)
	assert.ElementsMatch(t, []string{"breakfast", "lunch", "dinner", "snack"}, day.Properties["meals"].Required)

	task := day.Properties["tasks"].Items
	assert.ElementsMatch(t, []string{"id", "title", "time", "category", "completed", "alarmEnabled"}, task.Required)
	assert.NotContains(t, task.Required, "description")
	assert.Equal(t, []string{"work", "gym", "family", "personal", "medical", "meal"}, task.Properties["category"].Enum)
}

func sampleJSON(t *testing.T, days int, mutate func(m map[string]any)) string {
	t.Helper()
	plans := make([]any, 0, days)
	for i := 0; i < days; i++ {
		plans = append(plans, map[string]any{
			"date":            fmt.Sprintf("Day %d", i+1),
			"motivationQuote": "You can do it",
			"meals":           map[string]any{"breakfast": "Oats", "lunch": "Jollof", "dinner": "Soup", "snack": "Nuts"},
			"tasks": []any{
				map[string]any{"id": "t2", "title": "Work", "time": "09:00", "category": "work", "completed": false, "alarmEnabled": true},
				map[string]any{"id": "t1", "title": "Wake", "time": "06:00", "category": "personal", "completed": false, "alarmEnabled": true, "description": "Stretch"},
			},
		})
	}
	doc := map[string]any{"plans": plans}
	if mutate != nil {
		mutate(doc)
	}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	return string(raw)
}

func TestDecodeScheduleSortsTasks(t *testing.T) {
	week, err := DecodeSchedule(sampleJSON(t, 7, nil))
	require.NoError(t, err)
	require.Len(t, week.Plans, 7)
	for _, d := range week.Plans {
		assert.True(t, d.IsSorted())
	}
	assert.Equal(t, "t1", week.Plans[0].Tasks[0].ID)
	assert.Equal(t, "Stretch", week.Plans[0].Tasks[0].Description)
}

func TestDecodeScheduleReissuesLongIDs(t *testing.T) {
	long := strings.Repeat("x", model.MaxTaskIDLen+1)
	raw := sampleJSON(t, 7, func(m map[string]any) {
		day := m["plans"].([]any)[0].(map[string]any)
		day["tasks"].([]any)[0].(map[string]any)["id"] = long
	})
	week, err := DecodeSchedule(raw)
	require.NoError(t, err)

	work := week.Plans[0].Tasks[1]
	assert.Equal(t, "Work", work.Title)
	assert.NotEqual(t, long, work.ID)
	assert.LessOrEqual(t, len(work.ID), model.MaxTaskIDLen)
	assert.Equal(t, "t1", week.Plans[0].Tasks[0].ID)
	assert.Equal(t, "t2", week.Plans[1].Tasks[1].ID)
}

func TestDecodeScheduleRejectsNonConforming(t *testing.T) {
	firstTask := func(m map[string]any) map[string]any {
		day := m["plans"].([]any)[0].(map[string]any)
		return day["tasks"].([]any)[0].(map[string]any)
	}
	cases := map[string]string{
		"empty":          "   ",
		"not json":       "Sorry, I cannot help with that.",
		"six days":       sampleJSON(t, 6, nil),
		"trailing":       sampleJSON(t, 7, nil) + "{}",
		"unknown field":  sampleJSON(t, 7, func(m map[string]any) { m["extra"] = true }),
		"bad category":   sampleJSON(t, 7, func(m map[string]any) { firstTask(m)["category"] = "chores" }),
		"bad time":       sampleJSON(t, 7, func(m map[string]any) { firstTask(m)["time"] = "9am" }),
		"missing alarm":  sampleJSON(t, 7, func(m map[string]any) { delete(firstTask(m), "alarmEnabled") }),
		"missing plans":  `{}`,
		"missing meals":  sampleJSON(t, 7, func(m map[string]any) { delete(m["plans"].([]any)[2].(map[string]any), "meals") }),
		"missing snack":  sampleJSON(t, 7, func(m map[string]any) { delete(m["plans"].([]any)[2].(map[string]any)["meals"].(map[string]any), "snack") }),
		"null plans":     `{"plans": null}`,
		"plans not list": `{"plans": {}}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			week, err := DecodeSchedule(raw)
			assert.Nil(t, week)
			assert.ErrorIs(t, err, ErrContentGeneration)
		})
	}
}

type fakeGenerator struct {
	raw   string
	err   error
	calls int
	last  Request
}

func (f *fakeGenerator) Generate(_ context.Context, req Request) (string, error) {
	f.calls++
	f.last = req
	return f.raw, f.err
}

func TestGenerateSchedule(t *testing.T) {
	gen := &fakeGenerator{raw: sampleJSON(t, 7, nil)}
	week, err := GenerateSchedule(context.Background(), gen, workingParent(), zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, week.Plans, 7)
	assert.Equal(t, 1, gen.calls)
	assert.True(t, gen.last.HasConflictInstruction())
	assert.NotNil(t, gen.last.Schema)
}

func TestGenerateScheduleFailuresAreFinal(t *testing.T) {
	cause := errors.New("unreachable")
	gen := &fakeGenerator{err: cause}
	week, err := GenerateSchedule(context.Background(), gen, workingParent(), zap.NewNop())
	assert.Nil(t, week)
	assert.ErrorIs(t, err, ErrContentGeneration)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, gen.calls)

	gen = &fakeGenerator{raw: ""}
	_, err = GenerateSchedule(context.Background(), gen, workingParent(), zap.NewNop())
	assert.ErrorIs(t, err, ErrContentGeneration)
	assert.True(t, strings.Contains(err.Error(), "failed to receive content"))
}

func TestNewGenAIGeneratorRequiresKey(t *testing.T) {
	_, err := NewGenAIGenerator(context.Background(), "", "gemini-3-pro-preview")
	assert.Error(t, err)
}
