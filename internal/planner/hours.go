package planner

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultWorkHours is assumed when a working user leaves the hours blank.
const DefaultWorkHours = "Standard 9-5"

// HoursRange is a daily window in minutes since midnight. End < Start wraps midnight.
type HoursRange struct {
	Start int
	End   int
}

var clockSide = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)

type clockPart struct {
	minutes  int
	padded   bool // written as 24h with a leading zero, e.g. "06:00"
	meridiem string
}

// ParseHoursRange reads free-text working hours such as "9 AM - 5 PM",
// "09:00-17:00", "9am to 5:30pm" or "Standard 9-5".
func ParseHoursRange(s string) (HoursRange, error) {
	text := strings.ToLower(strings.TrimSpace(s))
	text = strings.NewReplacer(
		"standard", "",
		"a.m.", "am",
		"p.m.", "pm",
		"–", "-",
		"—", "-",
		" to ", "-",
	).Replace(text)
	text = strings.TrimSpace(text)

	parts := strings.Split(text, "-")
	if len(parts) != 2 {
		return HoursRange{}, fmt.Errorf("hours %q: expected a start-end range", s)
	}
	start, err := parseClockPart(parts[0])
	if err != nil {
		return HoursRange{}, fmt.Errorf("hours %q: start: %w", s, err)
	}
	end, err := parseClockPart(parts[1])
	if err != nil {
		return HoursRange{}, fmt.Errorf("hours %q: end: %w", s, err)
	}

	// "9-5", "9:00-5:30" and "9am-5" mean a day shift. A morning start with an
	// earlier bare end is read as PM; "22:00-06:00" stays overnight.
	if end.meridiem == "" && !end.padded && start.minutes < 12*60 &&
		end.minutes <= start.minutes && end.minutes < 12*60 {
		end.minutes += 12 * 60
	}
	return HoursRange{Start: start.minutes, End: end.minutes}, nil
}

func parseClockPart(s string) (clockPart, error) {
	m := clockSide.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return clockPart{}, fmt.Errorf("unrecognised time %q", strings.TrimSpace(s))
	}
	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if minute > 59 {
		return clockPart{}, fmt.Errorf("invalid minute in %q", s)
	}
	switch m[3] {
	case "am":
		if hour < 1 || hour > 12 {
			return clockPart{}, fmt.Errorf("invalid hour in %q", s)
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return clockPart{}, fmt.Errorf("invalid hour in %q", s)
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour > 23 {
			return clockPart{}, fmt.Errorf("invalid hour in %q", s)
		}
	}
	return clockPart{
		minutes:  hour*60 + minute,
		padded:   len(m[1]) == 2 && m[1][0] == '0',
		meridiem: m[3],
	}, nil
}

// Contains reports whether the minute of day falls inside the range, bounds included.
func (r HoursRange) Contains(minute int) bool {
	if r.Start <= r.End {
		return minute >= r.Start && minute <= r.End
	}
	return minute >= r.Start || minute <= r.End
}

func (r HoursRange) String() string {
	return fmt.Sprintf("%s-%s", formatMinutes(r.Start), formatMinutes(r.End))
}

func formatMinutes(mins int) string {
	mins %= 24 * 60
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

// clockMinutes converts a validated HH:MM string to minutes since midnight.
func clockMinutes(hhmm string) int {
	h, _ := strconv.Atoi(hhmm[:2])
	m, _ := strconv.Atoi(hhmm[3:])
	return h*60 + m
}
