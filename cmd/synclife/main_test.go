package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synclife/internal/config"
	"synclife/internal/model"
	"synclife/internal/planner"
)

const profileYAML = `name: Ada
motivationStyle: Words of Affirmation
isWorking: true
workHours: 9 AM - 5 PM
hasKids: true
kidsDetails:
  count: 2
  schoolStart: "08:30"
  schoolEnd: "15:30"
  childActivities: [Football]
alarmSettings:
  leadTimeMinutes: 10
`

type cannedGenerator struct {
	raw  string
	err  error
	last planner.Request
}

func (g *cannedGenerator) Generate(_ context.Context, req planner.Request) (string, error) {
	g.last = req
	return g.raw, g.err
}

func cannedWeek(t *testing.T) string {
	t.Helper()
	plans := make([]map[string]any, 0, model.DaysPerWeek)
	for i := 0; i < model.DaysPerWeek; i++ {
		plans = append(plans, map[string]any{
			"date":            fmt.Sprintf("Day %d", i+1),
			"motivationQuote": "One step at a time",
			"meals":           map[string]any{"breakfast": "Pap", "lunch": "Rice", "dinner": "Soup", "snack": "Plantain chips"},
			"tasks": []any{
				map[string]any{"id": fmt.Sprintf("gym-%d", i), "title": "Gym", "time": "07:00", "category": "gym", "completed": false, "alarmEnabled": true},
				map[string]any{"id": fmt.Sprintf("pickup-%d", i), "title": "Arrange pick up of child", "time": "15:30", "category": "family", "completed": false, "alarmEnabled": true},
			},
		})
	}
	raw, err := json.Marshal(map[string]any{"plans": plans})
	require.NoError(t, err)
	return string(raw)
}

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATABASE_URL", filepath.Join(dir, "synclife.db"))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("SYNC_DELAY", "0s")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("BRIEFING_TIME", "06:00")

	path := filepath.Join(dir, "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(profileYAML), 0o600))
	return path
}

func execute(t *testing.T, gen planner.Generator, args ...string) (string, error) {
	t.Helper()
	a := &app{newGenerator: func(context.Context, config.Config) (planner.Generator, error) {
		if gen == nil {
			return nil, errors.New("no generator")
		}
		return gen, nil
	}}
	root := newRootCmd(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	a.close()
	return out.String(), err
}

func TestOnboardThenEditFromCLI(t *testing.T) {
	profilePath := setupEnv(t)
	gen := &cannedGenerator{raw: cannedWeek(t)}

	out, err := execute(t, gen, "onboard", "--profile", profilePath)
	require.NoError(t, err)
	assert.Contains(t, out, "Schedule ready for Ada")
	assert.Contains(t, out, "Day 1")
	assert.True(t, gen.last.HasConflictInstruction())

	out, err = execute(t, nil, "show", "--week")
	require.NoError(t, err)
	assert.Contains(t, out, "7. Day 7")

	out, err = execute(t, nil, "add", "--day", "1", "--time", "08:00", "--category", "family", "Call", "mom")
	require.NoError(t, err)
	assert.Contains(t, out, "Added Call mom at 08:00 (family)")

	out, err = execute(t, nil, "toggle", "--day", "1", "gym-0")
	require.NoError(t, err)
	assert.Contains(t, out, "[x] 07:00")
	assert.Contains(t, out, "(33% done)")

	out, err = execute(t, nil, "delete", "--day", "1", "pickup-0")
	require.NoError(t, err)
	assert.NotContains(t, out, "pickup-0")

	out, err = execute(t, nil, "show", "--day", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Call mom")
	assert.Contains(t, out, "Snack: Plantain chips")
}

func TestProfileFileIsNormalized(t *testing.T) {
	profilePath := setupEnv(t)
	p, err := readProfile(profilePath)
	require.NoError(t, err)
	assert.Equal(t, []string{"Football", ""}, p.KidsDetails.ChildActivities)
	assert.Equal(t, 10, p.LeadTime())

	_, err = readProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestOnboardGenerationFailure(t *testing.T) {
	profilePath := setupEnv(t)

	_, err := execute(t, &cannedGenerator{err: errors.New("quota exceeded")}, "onboard", "--profile", profilePath)
	assert.ErrorIs(t, err, planner.ErrContentGeneration)

	out, err := execute(t, nil, "show")
	require.NoError(t, err)
	assert.Contains(t, out, noScheduleHint)
}

func TestCommandsWithoutSchedule(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, nil, "add", "--time", "08:00", "Run")
	assert.EqualError(t, err, noScheduleHint)

	_, err = execute(t, nil, "toggle", "--day", "9", "x")
	assert.Error(t, err)
}

func TestReset(t *testing.T) {
	profilePath := setupEnv(t)
	_, err := execute(t, &cannedGenerator{raw: cannedWeek(t)}, "onboard", "--profile", profilePath)
	require.NoError(t, err)

	_, err = execute(t, nil, "reset")
	assert.Error(t, err)

	out, err := execute(t, nil, "reset", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Session cleared.")

	out, err = execute(t, nil, "show")
	require.NoError(t, err)
	assert.Contains(t, out, noScheduleHint)
}

func TestRunStopsWhenContextEnds(t *testing.T) {
	setupEnv(t)
	a := &app{newGenerator: func(context.Context, config.Config) (planner.Generator, error) {
		return nil, errors.New("no key")
	}}
	require.NoError(t, a.init())
	t.Cleanup(a.close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, a.run(ctx))
}
