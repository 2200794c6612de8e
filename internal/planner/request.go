package planner

import (
	"fmt"
	"strings"

	"google.golang.org/genai"

	"synclife/internal/model"
)

// conflictMarker opens the explicit pickup instruction in the prompt.
const conflictMarker = "CONFLICT DETECTED:"

// Request is everything the generator needs to produce a weekly schedule.
type Request struct {
	Prompt   string
	Schema   *genai.Schema
	Conflict *PickupConflict
}

// HasConflictInstruction reports whether the prompt carries the explicit pickup task instruction.
func (r Request) HasConflictInstruction() bool {
	return strings.Contains(r.Prompt, conflictMarker)
}

// PickupConflict describes a school end that lands inside working hours.
type PickupConflict struct {
	SchoolEnd string
	WorkHours string
	// Assumed is set when the working hours could not be parsed.
	Assumed bool
}

// DetectPickupConflict reports whether a working parent is at work when school ends.
func DetectPickupConflict(p *model.Profile) (*PickupConflict, bool) {
	if !p.IsWorking || !p.HasKids || p.KidsDetails == nil || !model.IsClock(p.KidsDetails.SchoolEnd) {
		return nil, false
	}
	hours := strings.TrimSpace(p.WorkHours)
	if hours == "" {
		hours = DefaultWorkHours
	}
	c := &PickupConflict{SchoolEnd: p.KidsDetails.SchoolEnd, WorkHours: hours}

	rng, err := ParseHoursRange(hours)
	if err != nil {
		c.Assumed = true
		return c, true
	}
	if !rng.Contains(clockMinutes(p.KidsDetails.SchoolEnd)) {
		return nil, false
	}
	return c, true
}

// BuildRequest turns a profile into a prompt and the response schema the generator must honour.
func BuildRequest(p *model.Profile) Request {
	conflict, hasConflict := DetectPickupConflict(p)

	var b strings.Builder
	b.WriteString("Create a detailed 7-day productivity and meal plan for a user with the following profile:\n")
	fmt.Fprintf(&b, "Name: %s\n", p.Name)
	fmt.Fprintf(&b, "Motivation Style: %s\n", p.MotivationStyle)
	fmt.Fprintf(&b, "Age: %s, Sex: %s, Ethnicity: %s\n", p.Age, p.Sex, p.Ethnicity)
	fmt.Fprintf(&b, "Employment: %s\n", workInfo(p))
	fmt.Fprintf(&b, "Education: %s\n", studyInfo(p))
	fmt.Fprintf(&b, "GYM: %s\n", yesNo(p.GoesToGym, "Yes, user likes to go to the gym."))
	fmt.Fprintf(&b, "Business/Venture: %s\n", yesNo(p.HasSideBusiness, "Yes, user runs their own business."))
	fmt.Fprintf(&b, "Medical: %s\n", yesNo(p.HasMedicalAppts, "Yes, user has recurring medical appointments to fit in."))
	fmt.Fprintf(&b, "Family: %s\n", kidsInfo(p))
	fmt.Fprintf(&b, "Religion: %s\n", religionInfo(p))

	if p.HasKids && p.KidsDetails != nil {
		b.WriteString("\nCRITICAL SCHEDULING LOGIC:\n")
		fmt.Fprintf(&b, "- If the user is at work when their child finishes school (%s), you MUST explicitly add a task at that time to address the conflict.\n", p.KidsDetails.SchoolEnd)
		b.WriteString("- If they overlap, generate a task like \"Arrange pick up of child\" or \"Leave work early for school pick up\" or \"Coordinate child transport\".\n")
		b.WriteString("- Factor in travel time if needed.\n")
		b.WriteString("- Ensure the user is alerted via these tasks so they aren't surprised by the school day ending while they are in the middle of work.\n")
	}
	if hasConflict {
		fmt.Fprintf(&b, "- %s school ends at %s while the user works (%s). On every working day add a task at %s titled \"Arrange pick up of child\" (category family), scheduled early enough to cover travel time.\n",
			conflictMarker, conflict.SchoolEnd, conflict.WorkHours, conflict.SchoolEnd)
	}

	b.WriteString("\nRequirements:\n")
	b.WriteString("1. A daily schedule from 6 AM to 10 PM (06:00 to 22:00), with task times in 24-hour HH:MM format.\n")
	b.WriteString("2. Specific healthy meal suggestions (breakfast, lunch, dinner, snack) tailored to their profile and ethnicity.\n")
	b.WriteString("3. Tasks should include work hours (respecting the range), study hours, family duties, child activities, gym sessions, prayer times, and self-care.\n")
	fmt.Fprintf(&b, "4. Provide a daily motivation quote based on style (%s).\n", p.MotivationStyle)
	b.WriteString("5. Ensure the schedule is realistic and minimizes chaos. Return date format as \"DayName DayNumber\" e.g., \"Monday 1\".\n")
	b.WriteString("6. For all tasks, set \"alarmEnabled\" to true by default.\n")

	return Request{
		Prompt:   b.String(),
		Schema:   ScheduleSchema(),
		Conflict: conflict,
	}
}

func workInfo(p *model.Profile) string {
	if !p.IsWorking {
		return "Not working currently."
	}
	hours := strings.TrimSpace(p.WorkHours)
	if hours == "" {
		hours = DefaultWorkHours
	}
	return fmt.Sprintf("Working. Hours: %s.", hours)
}

func studyInfo(p *model.Profile) string {
	if !p.IsStudying {
		return "Not currently studying."
	}
	hours := strings.TrimSpace(p.StudyHours)
	if hours == "" {
		hours = "At least 1-2 hours daily"
	}
	return fmt.Sprintf("Currently studying. Study goal/hours: %s.", hours)
}

func kidsInfo(p *model.Profile) string {
	if !p.HasKids || p.KidsDetails == nil {
		return "No children"
	}
	k := p.KidsDetails
	activities := make([]string, 0, len(k.ChildActivities))
	for i, a := range k.ChildActivities {
		activities = append(activities, fmt.Sprintf("Child %d: %s", i+1, a))
	}
	return fmt.Sprintf("%d children. School schedule: Starts at %s, Ends at %s. Child activities: %s.",
		k.Count, k.SchoolStart, k.SchoolEnd, strings.Join(activities, ", "))
}

func religionInfo(p *model.Profile) string {
	if !p.HasReligion {
		return "No specific religious requirements."
	}
	days, times := "None specified", "None specified"
	if r := p.ReligionDetails; r != nil {
		if len(r.WorshipDays) > 0 {
			days = strings.Join(r.WorshipDays, ", ")
		}
		if len(r.PrayerTimes) > 0 {
			times = strings.Join(r.PrayerTimes, ", ")
		}
	}
	return fmt.Sprintf("Faith is important. Worship days: %s. Daily Prayer/Faith times: %s. Integrate these prayer times into the daily routine strictly.", days, times)
}

func yesNo(v bool, yes string) string {
	if v {
		return yes
	}
	return "No."
}

// ScheduleSchema is the JSON schema the generated weekly schedule must satisfy.
func ScheduleSchema() *genai.Schema {
	str := func() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }

	task := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"id":           str(),
			"title":        str(),
			"time":         {Type: genai.TypeString, Description: "24-hour HH:MM"},
			"category":     {Type: genai.TypeString, Enum: model.CategoryStrings()},
			"completed":    {Type: genai.TypeBoolean},
			"alarmEnabled": {Type: genai.TypeBoolean},
			"description":  str(),
		},
		Required: []string{"id", "title", "time", "category", "completed", "alarmEnabled"},
	}

	meals := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"breakfast": str(),
			"lunch":     str(),
			"dinner":    str(),
			"snack":     str(),
		},
		Required: []string{"breakfast", "lunch", "dinner", "snack"},
	}

	day := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"date":            str(),
			"motivationQuote": str(),
			"meals":           meals,
			"tasks":           {Type: genai.TypeArray, Items: task},
		},
		Required: []string{"date", "motivationQuote", "tasks", "meals"},
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"plans": {
				Type:     genai.TypeArray,
				Items:    day,
				MinItems: genai.Ptr[int64](model.DaysPerWeek),
				MaxItems: genai.Ptr[int64](model.DaysPerWeek),
			},
		},
		Required: []string{"plans"},
	}
}
