package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidProfile is returned when a profile fails validation.
var ErrInvalidProfile = errors.New("invalid profile")

// MotivationStyle selects the tone of the daily quote.
type MotivationStyle string

const (
	MotivationAffirmation MotivationStyle = "Words of Affirmation"
	MotivationAggressive  MotivationStyle = "Aggressive/Hardcore"
)

// DefaultLeadTimeMinutes is used when the profile carries no alarm settings.
const DefaultLeadTimeMinutes = 5

var allowedLeadTimes = []int{0, 5, 10, 15, 30}

var weekdays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Profile is the onboarding questionnaire result.
type Profile struct {
	Name            string          `json:"name" yaml:"name"`
	Email           string          `json:"email" yaml:"email"`
	Phone           string          `json:"phone" yaml:"phone"`
	MotivationStyle MotivationStyle `json:"motivationStyle" yaml:"motivationStyle"`
	Age             string          `json:"age" yaml:"age"`
	Sex             string          `json:"sex" yaml:"sex"`
	Ethnicity       string          `json:"ethnicity" yaml:"ethnicity"`

	IsWorking       bool   `json:"isWorking" yaml:"isWorking"`
	WorkHours       string `json:"workHours,omitempty" yaml:"workHours,omitempty"`
	IsStudying      bool   `json:"isStudying" yaml:"isStudying"`
	StudyHours      string `json:"studyHours,omitempty" yaml:"studyHours,omitempty"`
	GoesToGym       bool   `json:"goesToGym" yaml:"goesToGym"`
	HasMedicalAppts bool   `json:"hasMedicalAppts" yaml:"hasMedicalAppts"`
	HasSideBusiness bool   `json:"hasSideBusiness" yaml:"hasSideBusiness"`
	HasKids         bool   `json:"hasKids" yaml:"hasKids"`
	HasReligion     bool   `json:"hasReligion" yaml:"hasReligion"`

	AvatarColor     string           `json:"avatarColor,omitempty" yaml:"avatarColor,omitempty"`
	KidsDetails     *KidsDetails     `json:"kidsDetails,omitempty" yaml:"kidsDetails,omitempty"`
	ReligionDetails *ReligionDetails `json:"religionDetails,omitempty" yaml:"religionDetails,omitempty"`
	AlarmSettings   *AlarmSettings   `json:"alarmSettings,omitempty" yaml:"alarmSettings,omitempty"`
}

// KidsDetails only exists when HasKids is set.
type KidsDetails struct {
	Count           int      `json:"count" yaml:"count"`
	SchoolStart     string   `json:"schoolStart" yaml:"schoolStart"`
	SchoolEnd       string   `json:"schoolEnd" yaml:"schoolEnd"`
	ChildActivities []string `json:"childActivities" yaml:"childActivities"`
}

// SetCount changes the number of children and resizes ChildActivities to match.
func (k *KidsDetails) SetCount(count int) {
	if count < 1 {
		count = 1
	}
	k.Count = count
	k.normalize()
}

// SetActivity records the activity of the i-th child. Out of range indexes are ignored.
func (k *KidsDetails) SetActivity(i int, activity string) {
	k.normalize()
	if i < 0 || i >= len(k.ChildActivities) {
		return
	}
	k.ChildActivities[i] = activity
}

func (k *KidsDetails) normalize() {
	switch {
	case len(k.ChildActivities) > k.Count:
		k.ChildActivities = k.ChildActivities[:k.Count]
	case len(k.ChildActivities) < k.Count:
		pad := make([]string, k.Count-len(k.ChildActivities))
		k.ChildActivities = append(k.ChildActivities, pad...)
	}
}

// ReligionDetails only exists when HasReligion is set.
type ReligionDetails struct {
	WorshipDays []string `json:"worshipDays" yaml:"worshipDays"`
	PrayerTimes []string `json:"prayerTimes" yaml:"prayerTimes"`
}

// ToggleWorshipDay adds or removes a weekday abbreviation.
func (r *ReligionDetails) ToggleWorshipDay(day string) {
	for i, d := range r.WorshipDays {
		if d == day {
			r.WorshipDays = append(r.WorshipDays[:i], r.WorshipDays[i+1:]...)
			return
		}
	}
	r.WorshipDays = append(r.WorshipDays, day)
}

// AddPrayerTime appends a prayer time.
func (r *ReligionDetails) AddPrayerTime(hhmm string) error {
	if !IsClock(hhmm) {
		return fmt.Errorf("%w: prayer time %q", ErrInvalidProfile, hhmm)
	}
	r.PrayerTimes = append(r.PrayerTimes, hhmm)
	return nil
}

// RemovePrayerTime drops the prayer time at index i.
func (r *ReligionDetails) RemovePrayerTime(i int) {
	if i < 0 || i >= len(r.PrayerTimes) {
		return
	}
	r.PrayerTimes = append(r.PrayerTimes[:i], r.PrayerTimes[i+1:]...)
}

// AlarmSettings controls reminder behaviour.
type AlarmSettings struct {
	LeadTimeMinutes int `json:"leadTimeMinutes" yaml:"leadTimeMinutes"`
}

// IsAllowedLeadTime reports whether minutes is one of the offered lead times.
func IsAllowedLeadTime(minutes int) bool {
	for _, v := range allowedLeadTimes {
		if v == minutes {
			return true
		}
	}
	return false
}

// LeadTime returns the configured lead time in minutes.
func (p *Profile) LeadTime() int {
	if p.AlarmSettings == nil {
		return DefaultLeadTimeMinutes
	}
	return p.AlarmSettings.LeadTimeMinutes
}

// Normalize restores the invariants of the optional sub-records.
func (p *Profile) Normalize() {
	if p.KidsDetails != nil {
		if p.KidsDetails.Count < 1 {
			p.KidsDetails.Count = 1
		}
		p.KidsDetails.normalize()
	}
}

// Validate checks the enumerations and clock fields of the profile.
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	switch p.MotivationStyle {
	case MotivationAffirmation, MotivationAggressive:
	default:
		return fmt.Errorf("%w: unknown motivation style %q", ErrInvalidProfile, p.MotivationStyle)
	}
	if p.AlarmSettings != nil && !IsAllowedLeadTime(p.AlarmSettings.LeadTimeMinutes) {
		return fmt.Errorf("%w: lead time %d not in %v", ErrInvalidProfile, p.AlarmSettings.LeadTimeMinutes, allowedLeadTimes)
	}
	if p.HasKids {
		k := p.KidsDetails
		if k == nil {
			return fmt.Errorf("%w: kids details are required", ErrInvalidProfile)
		}
		if k.Count < 1 {
			return fmt.Errorf("%w: kids count must be at least 1", ErrInvalidProfile)
		}
		if len(k.ChildActivities) != k.Count {
			return fmt.Errorf("%w: %d child activities for %d children", ErrInvalidProfile, len(k.ChildActivities), k.Count)
		}
		if !IsClock(k.SchoolStart) || !IsClock(k.SchoolEnd) {
			return fmt.Errorf("%w: school times must be HH:MM", ErrInvalidProfile)
		}
	}
	if p.HasReligion && p.ReligionDetails != nil {
		for _, d := range p.ReligionDetails.WorshipDays {
			if !isWeekday(d) {
				return fmt.Errorf("%w: unknown worship day %q", ErrInvalidProfile, d)
			}
		}
		for _, t := range p.ReligionDetails.PrayerTimes {
			if !IsClock(t) {
				return fmt.Errorf("%w: prayer time %q must be HH:MM", ErrInvalidProfile, t)
			}
		}
	}
	return nil
}

func isWeekday(day string) bool {
	for _, d := range weekdays {
		if d == day {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	out := *p
	if p.KidsDetails != nil {
		k := *p.KidsDetails
		k.ChildActivities = append([]string(nil), p.KidsDetails.ChildActivities...)
		out.KidsDetails = &k
	}
	if p.ReligionDetails != nil {
		r := ReligionDetails{
			WorshipDays: append([]string(nil), p.ReligionDetails.WorshipDays...),
			PrayerTimes: append([]string(nil), p.ReligionDetails.PrayerTimes...),
		}
		out.ReligionDetails = &r
	}
	if p.AlarmSettings != nil {
		a := *p.AlarmSettings
		out.AlarmSettings = &a
	}
	return &out
}
