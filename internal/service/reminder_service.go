package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"synclife/internal/model"
	"synclife/internal/notify"
)

const (
	reminderTitle = "Task Reminder"
	minuteLayout  = "2006-01-02 15:04"
)

// Alert is one reminder to deliver.
type Alert struct {
	TaskID string
	Title  string
	Body   string
}

// ScheduleSource exposes a read-only copy of the live session.
type ScheduleSource interface {
	Snapshot() (*model.Profile, *model.WeeklySchedule)
}

// Evaluate returns alerts for the tasks of day 0 that are due at now's HH:MM,
// not completed and with the alarm enabled.
func Evaluate(now time.Time, week *model.WeeklySchedule) []Alert {
	today := week.Day(0)
	if today == nil {
		return nil
	}
	clock := now.Format("15:04")

	var alerts []Alert
	for _, t := range today.Tasks {
		if t.Time != clock || t.Completed || !t.AlarmEnabled {
			continue
		}
		alerts = append(alerts, Alert{
			TaskID: t.ID,
			Title:  reminderTitle,
			Body:   "Don't forget: " + t.Title,
		})
	}
	return alerts
}

// ReminderService runs Evaluate on every tick and fires each alert once per minute.
type ReminderService struct {
	source   ScheduleSource
	notifier notify.Notifier
	loc      *time.Location
	log      *zap.Logger

	mu    sync.Mutex
	fired map[string]string
}

func NewReminderService(source ScheduleSource, notifier notify.Notifier, loc *time.Location, log *zap.Logger) *ReminderService {
	if loc == nil {
		loc = time.Local
	}
	return &ReminderService{
		source:   source,
		notifier: notifier,
		loc:      loc,
		log:      log,
		fired:    make(map[string]string),
	}
}

// Tick evaluates the schedule at now and delivers the due alerts.
// It returns the number of alerts handed to the notifier.
func (s *ReminderService) Tick(ctx context.Context, now time.Time) int {
	profile, week := s.source.Snapshot()
	if week == nil {
		return 0
	}
	now = now.In(s.loc)
	stamp := now.Format(minuteLayout)

	alerts := Evaluate(now, week)
	if len(alerts) > 0 && profile != nil {
		s.log.Debug("reminder lead time", zap.Int("minutes", profile.LeadTime()))
	}

	s.mu.Lock()
	for id, at := range s.fired {
		if at != stamp {
			delete(s.fired, id)
		}
	}
	due := alerts[:0]
	for _, a := range alerts {
		if s.fired[a.TaskID] == stamp {
			continue
		}
		s.fired[a.TaskID] = stamp
		due = append(due, a)
	}
	s.mu.Unlock()

	for _, a := range due {
		if err := s.notifier.Fire(ctx, a.Title, a.Body); err != nil {
			s.log.Error("failed to deliver reminder", zap.String("task_id", a.TaskID), zap.Error(err))
			continue
		}
		s.log.Info("reminder fired", zap.String("task_id", a.TaskID), zap.String("at", stamp))
	}
	return len(due)
}

// DailySummary renders day 0 as an HTML briefing.
func DailySummary(week *model.WeeklySchedule, now time.Time) string {
	today := week.Day(0)
	if today == nil {
		return "📋 <b>Daily briefing</b>\n— no schedule yet, run onboarding first"
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Daily briefing</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s · %s\n", html.EscapeString(today.Date), now.Format("2006-01-02")))
	builder.WriteString(fmt.Sprintf("💬 <i>%s</i>\n\n", html.EscapeString(today.MotivationQuote)))

	builder.WriteString(fmt.Sprintf("🔥 <b>Tasks</b> (%d%% done)\n", today.Progress()))
	if len(today.Tasks) == 0 {
		builder.WriteString("— nothing planned\n")
	}
	for _, t := range today.Tasks {
		builder.WriteString(FormatTaskLine(t))
	}

	m := today.Meals
	builder.WriteString("\n🍽 <b>Meals</b>\n")
	builder.WriteString(fmt.Sprintf("Breakfast: %s\nLunch: %s\nDinner: %s\nSnack: %s\n",
		html.EscapeString(m.Breakfast), html.EscapeString(m.Lunch),
		html.EscapeString(m.Dinner), html.EscapeString(m.Snack)))

	return strings.TrimSpace(builder.String())
}

// FormatTaskLine renders one task as an HTML line.
func FormatTaskLine(t model.Task) string {
	icon := "⬜️"
	if t.Completed {
		icon = "✅"
	}
	line := fmt.Sprintf("%s %s %s <i>(%s)</i>", icon, t.Time, html.EscapeString(strings.TrimSpace(t.Title)), t.Category)
	if t.AlarmEnabled {
		line += " 🔔"
	}
	if t.Description != "" {
		line += fmt.Sprintf("\n   📝 %s", html.EscapeString(strings.TrimSpace(t.Description)))
	}
	return line + "\n"
}
