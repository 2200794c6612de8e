package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"synclife/internal/model"
	"synclife/internal/notify"
	"synclife/internal/planner"
)

var (
	ErrNoSchedule   = errors.New("no active schedule")
	ErrNoProfile    = errors.New("no active profile")
	ErrInvalidTask  = errors.New("invalid task")
	ErrTaskNotFound = errors.New("task not found")
)

// SyncStatus drives the "syncing" indicator shown after a write.
type SyncStatus string

const (
	StatusSynced  SyncStatus = "synced"
	StatusSyncing SyncStatus = "syncing"
)

// Store is the key-value persistence the session writes through to.
type Store interface {
	LoadProfile(ctx context.Context) (*model.Profile, error)
	SaveProfile(ctx context.Context, p *model.Profile) error
	LoadSchedule(ctx context.Context) (*model.WeeklySchedule, error)
	SaveSchedule(ctx context.Context, w *model.WeeklySchedule) error
	Clear(ctx context.Context) error
}

// Sharer hands a task summary to the platform share or the clipboard.
type Sharer interface {
	Share(ctx context.Context, text string) (notify.ShareResult, error)
}

// SessionService owns the live profile and weekly schedule.
// Every mutation is written through to the Store before it returns.
type SessionService struct {
	store     Store
	gen       planner.Generator
	sharer    Sharer
	log       *zap.Logger
	syncDelay time.Duration
	newID     func() string

	mu        sync.RWMutex
	profile   *model.Profile
	schedule  *model.WeeklySchedule
	status    SyncStatus
	syncTimer *time.Timer
}

func NewSessionService(store Store, gen planner.Generator, sharer Sharer, log *zap.Logger, syncDelay time.Duration) *SessionService {
	return &SessionService{
		store:     store,
		gen:       gen,
		sharer:    sharer,
		log:       log,
		syncDelay: syncDelay,
		newID:     uuid.NewString,
		status:    StatusSynced,
	}
}

// Restore loads a previous session. It is active only when both records exist.
func (s *SessionService) Restore(ctx context.Context) (bool, error) {
	profile, err := s.store.LoadProfile(ctx)
	if err != nil {
		return false, fmt.Errorf("load profile: %w", err)
	}
	schedule, err := s.store.LoadSchedule(ctx)
	if err != nil {
		return false, fmt.Errorf("load schedule: %w", err)
	}
	if profile == nil || schedule == nil {
		return false, nil
	}
	if err := schedule.Validate(); err != nil {
		s.log.Warn("stored schedule ignored", zap.Error(err))
		return false, nil
	}
	schedule.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile, s.schedule = profile, schedule
	s.log.Info("session restored", zap.String("user", profile.Name), zap.Int("days", len(schedule.Plans)))
	return true, nil
}

// Onboard generates a schedule for the profile and makes both the active session.
// On failure nothing is persisted and the previous session stays in place.
func (s *SessionService) Onboard(ctx context.Context, profile *model.Profile) (*model.WeeklySchedule, error) {
	p := profile.Clone()
	p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if s.gen == nil {
		return nil, fmt.Errorf("%w: no generator configured", planner.ErrContentGeneration)
	}

	week, err := planner.GenerateSchedule(ctx, s.gen, p, s.log)
	if err != nil {
		s.log.Error("schedule generation failed", zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.SaveProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	if err := s.store.SaveSchedule(ctx, week); err != nil {
		return nil, fmt.Errorf("save schedule: %w", err)
	}
	s.profile, s.schedule = p, week
	s.log.Info("user onboarded", zap.String("user", p.Name))
	return week.Clone(), nil
}

// ClearSession wipes the stored records and resets the session.
func (s *SessionService) ClearSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.profile, s.schedule = nil, nil
	s.stopSyncTimerLocked()
	s.status = StatusSynced
	return nil
}

// Snapshot returns deep copies of the profile and schedule. Either may be nil.
func (s *SessionService) Snapshot() (*model.Profile, *model.WeeklySchedule) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.Clone(), s.schedule.Clone()
}

// Active reports whether a schedule is loaded.
func (s *SessionService) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.schedule != nil
}

// SyncStatus reports whether the last write is still being shown as syncing.
func (s *SessionService) SyncStatus() SyncStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// ToggleTaskCompletion flips the completed flag. Unknown ids are ignored.
func (s *SessionService) ToggleTaskCompletion(ctx context.Context, dayIndex int, taskID string) error {
	return s.mutateDay(ctx, dayIndex, func(d *model.DailyPlan) bool {
		i := d.TaskIndex(taskID)
		if i < 0 {
			return false
		}
		d.Tasks[i].Completed = !d.Tasks[i].Completed
		return true
	})
}

// ToggleAlarm flips the alarm flag. Unknown ids are ignored.
func (s *SessionService) ToggleAlarm(ctx context.Context, dayIndex int, taskID string) error {
	return s.mutateDay(ctx, dayIndex, func(d *model.DailyPlan) bool {
		i := d.TaskIndex(taskID)
		if i < 0 {
			return false
		}
		d.Tasks[i].AlarmEnabled = !d.Tasks[i].AlarmEnabled
		return true
	})
}

// DeleteTask removes a task. Unknown ids are ignored.
func (s *SessionService) DeleteTask(ctx context.Context, dayIndex int, taskID string) error {
	return s.mutateDay(ctx, dayIndex, func(d *model.DailyPlan) bool {
		i := d.TaskIndex(taskID)
		if i < 0 {
			return false
		}
		d.Tasks = append(d.Tasks[:i], d.Tasks[i+1:]...)
		return true
	})
}

// AddTask inserts a new task in time order. An empty title is ignored and returns nil.
func (s *SessionService) AddTask(ctx context.Context, dayIndex int, title, hhmm string, category model.Category) (*model.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}
	if !model.IsClock(hhmm) {
		return nil, fmt.Errorf("%w: time %q must be HH:MM", ErrInvalidTask, hhmm)
	}
	if !category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidTask, category)
	}

	var added *model.Task
	err := s.mutateDay(ctx, dayIndex, func(d *model.DailyPlan) bool {
		task := model.Task{
			ID:           s.newID(),
			Title:        title,
			Time:         hhmm,
			Category:     category,
			Completed:    false,
			AlarmEnabled: true,
		}
		d.InsertTask(task)
		added = &task
		return true
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// UpdateMeals replaces the four meals of a day.
func (s *SessionService) UpdateMeals(ctx context.Context, dayIndex int, meals model.Meals) error {
	return s.mutateDay(ctx, dayIndex, func(d *model.DailyPlan) bool {
		d.Meals = meals
		return true
	})
}

// UpdateProfile replaces the stored profile, alarm settings included.
func (s *SessionService) UpdateProfile(ctx context.Context, profile *model.Profile) error {
	p := profile.Clone()
	p.Normalize()
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setProfileLocked(ctx, p)
}

// SetLeadTime changes the alarm lead time of the active profile.
func (s *SessionService) SetLeadTime(ctx context.Context, minutes int) error {
	if !model.IsAllowedLeadTime(minutes) {
		return fmt.Errorf("%w: lead time %d", model.ErrInvalidProfile, minutes)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return ErrNoProfile
	}
	p := s.profile.Clone()
	p.AlarmSettings = &model.AlarmSettings{LeadTimeMinutes: minutes}
	return s.setProfileLocked(ctx, p)
}

// ShareTask shares a one-line summary of a task.
func (s *SessionService) ShareTask(ctx context.Context, dayIndex int, taskID string) (notify.ShareResult, error) {
	s.mu.RLock()
	var text string
	if day := s.schedule.Day(dayIndex); day != nil {
		if i := day.TaskIndex(taskID); i >= 0 {
			text = ShareText(day.Tasks[i])
		}
	}
	s.mu.RUnlock()

	if text == "" {
		return "", ErrTaskNotFound
	}
	if s.sharer == nil {
		return "", notify.ErrShareUnavailable
	}
	return s.sharer.Share(ctx, text)
}

// ShareText is the text handed to the sharing collaborator.
func ShareText(t model.Task) string {
	return fmt.Sprintf("SyncLife Task: %s at %s", t.Title, t.Time)
}

// Close stops the pending status timer.
func (s *SessionService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopSyncTimerLocked()
}

// mutateDay applies fn to a day and persists the schedule when fn reports a change.
// An out of range day is a no-op.
func (s *SessionService) mutateDay(ctx context.Context, dayIndex int, fn func(d *model.DailyPlan) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schedule == nil {
		return ErrNoSchedule
	}
	day := s.schedule.Day(dayIndex)
	if day == nil {
		return nil
	}
	if !fn(day) {
		return nil
	}

	s.beginSyncLocked()
	if err := s.store.SaveSchedule(ctx, s.schedule); err != nil {
		s.log.Error("schedule write-through failed", zap.Error(err))
		return fmt.Errorf("save schedule: %w", err)
	}
	s.endSyncLocked()
	return nil
}

func (s *SessionService) setProfileLocked(ctx context.Context, p *model.Profile) error {
	s.profile = p
	s.beginSyncLocked()
	if err := s.store.SaveProfile(ctx, p); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	s.endSyncLocked()
	return nil
}

func (s *SessionService) beginSyncLocked() {
	s.stopSyncTimerLocked()
	s.status = StatusSyncing
}

func (s *SessionService) endSyncLocked() {
	if s.syncDelay <= 0 {
		s.status = StatusSynced
		return
	}
	s.syncTimer = time.AfterFunc(s.syncDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.status = StatusSynced
	})
}

func (s *SessionService) stopSyncTimerLocked() {
	if s.syncTimer != nil {
		s.syncTimer.Stop()
		s.syncTimer = nil
	}
}
