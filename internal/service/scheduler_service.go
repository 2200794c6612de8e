package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// everyMinuteSpec fires at second 0 of every wall-clock minute, so a
// reminder at HH:MM is checked exactly once per matching minute.
const everyMinuteSpec = "0 * * * * *"

// SchedulerService runs the named periodic jobs of the process: the reminder
// tick and the daily briefing. A panicking job is logged and recovered.
type SchedulerService struct {
	cron *cron.Cron
	log  *zap.Logger

	mu   sync.Mutex
	jobs map[string]cron.EntryID
}

func NewSchedulerService(loc *time.Location, log *zap.Logger) *SchedulerService {
	cl := cronLogger{log: log.Sugar()}
	return &SchedulerService{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		log:  log,
		jobs: make(map[string]cron.EntryID),
	}
}

// ScheduleEveryMinute registers a job aligned to the start of each minute.
func (s *SchedulerService) ScheduleEveryMinute(name string, job func()) error {
	return s.add(name, everyMinuteSpec, job)
}

// ScheduleDaily registers a job that runs once a day at HH:MM local time.
func (s *SchedulerService) ScheduleDaily(name, hhmm string, job func()) error {
	spec, err := buildDailySpec(hhmm)
	if err != nil {
		return err
	}
	return s.add(name, spec, job)
}

func (s *SchedulerService) add(name, spec string, job func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.jobs[name]; dup {
		return fmt.Errorf("job %q already scheduled", name)
	}
	id, err := s.cron.AddFunc(spec, job)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	s.jobs[name] = id
	s.log.Debug("job scheduled", zap.String("job", name), zap.String("spec", spec))
	return nil
}

// Next returns the next run of a named job. It is zero until Start.
func (s *SchedulerService) Next(name string) (time.Time, bool) {
	s.mu.Lock()
	id, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *SchedulerService) Stop() {
	<-s.cron.Stop().Done()
}

// buildDailySpec turns "6:30" or "06:30" into a seconds-first cron spec.
func buildDailySpec(hhmm string) (string, error) {
	at, err := time.Parse("15:04", hhmm)
	if err != nil {
		return "", fmt.Errorf("invalid daily time %q, expected HH:MM", hhmm)
	}
	return fmt.Sprintf("0 %d %d * * *", at.Minute(), at.Hour()), nil
}

// cronLogger routes cron's own logging into zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
