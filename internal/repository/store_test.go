package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"synclife/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	log := zap.NewNop()
	db, err := NewDB(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewStore(NewRecordRepository(db), log)
}

func TestStoreLoadAbsent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.LoadProfile(ctx)
	require.NoError(t, err)
	assert.Nil(t, p)

	w, err := s.LoadSchedule(ctx)
	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestStoreRoundTripAndOverwrite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	profile := &model.Profile{
		Name:            "Ada",
		MotivationStyle: model.MotivationAggressive,
		HasKids:         true,
		KidsDetails:     &model.KidsDetails{Count: 2, SchoolStart: "08:30", SchoolEnd: "15:30", ChildActivities: []string{"Swim", ""}},
		AlarmSettings:   &model.AlarmSettings{LeadTimeMinutes: 15},
	}
	require.NoError(t, s.SaveProfile(ctx, profile))

	profile.Name = "Ada L."
	require.NoError(t, s.SaveProfile(ctx, profile))

	got, err := s.LoadProfile(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ada L.", got.Name)
	assert.Equal(t, 15, got.LeadTime())
	assert.Equal(t, []string{"Swim", ""}, got.KidsDetails.ChildActivities)

	week := &model.WeeklySchedule{Plans: []model.DailyPlan{{
		Date:  "Monday 1",
		Tasks: []model.Task{{ID: "x", Title: "Run", Time: "07:00", Category: model.CategoryGym, AlarmEnabled: true}},
	}}}
	require.NoError(t, s.SaveSchedule(ctx, week))

	gotWeek, err := s.LoadSchedule(ctx)
	require.NoError(t, err)
	assert.Equal(t, week, gotWeek)
}

func TestStoreClear(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveProfile(ctx, &model.Profile{Name: "Ada"}))
	require.NoError(t, s.SaveSchedule(ctx, &model.WeeklySchedule{}))
	require.NoError(t, s.Clear(ctx))

	p, err := s.LoadProfile(ctx)
	require.NoError(t, err)
	assert.Nil(t, p)

	w, err := s.LoadSchedule(ctx)
	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestEnsureDirForSQLite(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, ensureDirForSQLite("file:"+dir+"/nested/db.sqlite?cache=shared"))
	assert.DirExists(t, dir+"/nested")
	require.NoError(t, ensureDirForSQLite(":memory:"))
}

func TestSQLiteFile(t *testing.T) {
	path, ok := sqliteFile("file:/var/lib/synclife/db.sqlite?_busy_timeout=5000")
	assert.True(t, ok)
	assert.Equal(t, "/var/lib/synclife/db.sqlite", path)

	path, ok = sqliteFile("synclife.db")
	assert.True(t, ok)
	assert.Equal(t, "synclife.db", path)

	_, ok = sqliteFile("file::memory:?cache=shared")
	assert.False(t, ok)
	_, ok = sqliteFile("file:test?mode=memory")
	assert.False(t, ok)
}
