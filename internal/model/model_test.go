package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPlan(date string) DailyPlan {
	return DailyPlan{
		Date:            date,
		MotivationQuote: "Keep going",
		Meals:           Meals{Breakfast: "Oats", Lunch: "Salad", Dinner: "Rice", Snack: "Apple"},
		Tasks: []Task{
			{ID: "a", Title: "Wake up", Time: "06:00", Category: CategoryPersonal, AlarmEnabled: true},
			{ID: "b", Title: "Work", Time: "09:00", Category: CategoryWork, AlarmEnabled: true},
		},
	}
}

func validWeek() *WeeklySchedule {
	w := &WeeklySchedule{}
	for i := 0; i < DaysPerWeek; i++ {
		w.Plans = append(w.Plans, validPlan("Monday 1"))
	}
	return w
}

func TestKidsDetailsSetCountKeepsActivitiesInSync(t *testing.T) {
	k := &KidsDetails{Count: 2, ChildActivities: []string{"Football", "Piano"}}

	k.SetCount(4)
	assert.Equal(t, []string{"Football", "Piano", "", ""}, k.ChildActivities)

	k.SetCount(1)
	assert.Equal(t, []string{"Football"}, k.ChildActivities)

	k.SetCount(0)
	assert.Equal(t, 1, k.Count)
	assert.Len(t, k.ChildActivities, 1)
}

func TestKidsDetailsSetActivityIgnoresOutOfRange(t *testing.T) {
	k := &KidsDetails{Count: 1}
	k.SetActivity(0, "Swim")
	k.SetActivity(3, "Chess")
	assert.Equal(t, []string{"Swim"}, k.ChildActivities)
}

func TestReligionDetailsPrayerTimes(t *testing.T) {
	r := &ReligionDetails{}
	require.NoError(t, r.AddPrayerTime("05:30"))
	require.NoError(t, r.AddPrayerTime("13:00"))
	require.NoError(t, r.AddPrayerTime("19:45"))
	assert.ErrorIs(t, r.AddPrayerTime("7pm"), ErrInvalidProfile)

	r.RemovePrayerTime(1)
	assert.Equal(t, []string{"05:30", "19:45"}, r.PrayerTimes)
	r.RemovePrayerTime(9)
	assert.Len(t, r.PrayerTimes, 2)

	r.ToggleWorshipDay("Fri")
	r.ToggleWorshipDay("Sun")
	r.ToggleWorshipDay("Fri")
	assert.Equal(t, []string{"Sun"}, r.WorshipDays)
}

func TestProfileValidate(t *testing.T) {
	base := func() Profile {
		return Profile{Name: "Ada", MotivationStyle: MotivationAffirmation}
	}

	p := base()
	require.NoError(t, p.Validate())

	p = base()
	p.MotivationStyle = "Gentle"
	assert.ErrorIs(t, p.Validate(), ErrInvalidProfile)

	p = base()
	p.AlarmSettings = &AlarmSettings{LeadTimeMinutes: 7}
	assert.ErrorIs(t, p.Validate(), ErrInvalidProfile)

	p = base()
	p.HasKids = true
	assert.ErrorIs(t, p.Validate(), ErrInvalidProfile)

	p.KidsDetails = &KidsDetails{Count: 2, SchoolStart: "08:30", SchoolEnd: "15:30", ChildActivities: []string{""}}
	assert.ErrorIs(t, p.Validate(), ErrInvalidProfile)
	p.Normalize()
	require.NoError(t, p.Validate())

	p = base()
	p.HasReligion = true
	p.ReligionDetails = &ReligionDetails{WorshipDays: []string{"Funday"}}
	assert.ErrorIs(t, p.Validate(), ErrInvalidProfile)
}

func TestProfileLeadTimeDefault(t *testing.T) {
	p := Profile{}
	assert.Equal(t, DefaultLeadTimeMinutes, p.LeadTime())
	p.AlarmSettings = &AlarmSettings{LeadTimeMinutes: 0}
	assert.Equal(t, 0, p.LeadTime())
}

func TestIsClock(t *testing.T) {
	for _, s := range []string{"00:00", "09:05", "23:59"} {
		assert.True(t, IsClock(s), s)
	}
	for _, s := range []string{"", "9:05", "24:00", "12:60", "ab:cd", "+1:00", "12-30"} {
		assert.False(t, IsClock(s), s)
	}
}

func TestInsertTaskKeepsTimeOrder(t *testing.T) {
	d := validPlan("Monday 1")
	d.InsertTask(Task{ID: "c", Time: "07:30"})
	d.InsertTask(Task{ID: "d", Time: "05:00"})
	d.InsertTask(Task{ID: "e", Time: "23:00"})
	d.InsertTask(Task{ID: "f", Time: "09:00"})

	ids := make([]string, 0, len(d.Tasks))
	for _, task := range d.Tasks {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []string{"d", "a", "c", "b", "f", "e"}, ids)
	assert.True(t, d.IsSorted())
}

func TestProgress(t *testing.T) {
	empty := DailyPlan{}
	assert.Equal(t, 0, empty.Progress())

	d := DailyPlan{Tasks: []Task{{Completed: true}, {}, {}}}
	assert.Equal(t, 33, d.Progress())
	d.Tasks[1].Completed = true
	assert.Equal(t, 67, d.Progress())
}

func TestWeeklyScheduleValidate(t *testing.T) {
	require.NoError(t, validWeek().Validate())

	w := validWeek()
	w.Plans = w.Plans[:6]
	assert.ErrorIs(t, w.Validate(), ErrInvalidSchedule)

	w = validWeek()
	w.Plans[3].Tasks[0].Category = "chores"
	assert.ErrorIs(t, w.Validate(), ErrInvalidSchedule)

	w = validWeek()
	w.Plans[2].Tasks[1].Time = "9am"
	assert.ErrorIs(t, w.Validate(), ErrInvalidSchedule)

	w = validWeek()
	w.Plans[0].Meals.Snack = ""
	assert.ErrorIs(t, w.Validate(), ErrInvalidSchedule)

	w = validWeek()
	w.Plans[0].Tasks[1].ID = "a"
	assert.ErrorIs(t, w.Validate(), ErrInvalidSchedule)

	var nilWeek *WeeklySchedule
	assert.ErrorIs(t, nilWeek.Validate(), ErrInvalidSchedule)
}

func TestCloneIsDeep(t *testing.T) {
	w := validWeek()
	c := w.Clone()
	c.Plans[0].Tasks[0].Completed = true
	c.Plans[0].Tasks = append(c.Plans[0].Tasks, Task{ID: "z"})

	assert.False(t, w.Plans[0].Tasks[0].Completed)
	assert.Len(t, w.Plans[0].Tasks, 2)
}

func TestReissueLongIDs(t *testing.T) {
	w := validWeek()
	long := "a-very-long-task-identifier-from-the-generator-0001"
	require.Greater(t, len(long), MaxTaskIDLen)
	w.Plans[3].Tasks[1].ID = long

	n := 0
	assert.Equal(t, 1, w.ReissueLongIDs(func() string {
		n++
		return "short"
	}))
	assert.Equal(t, 1, n)
	assert.Equal(t, "short", w.Plans[3].Tasks[1].ID)
	assert.Equal(t, "a", w.Plans[3].Tasks[0].ID)

	var nilWeek *WeeklySchedule
	assert.Zero(t, nilWeek.ReissueLongIDs(func() string { return "x" }))
}

func TestDayOutOfRange(t *testing.T) {
	w := validWeek()
	assert.NotNil(t, w.Day(6))
	assert.Nil(t, w.Day(7))
	assert.Nil(t, w.Day(-1))
}

func TestProfileCloneIsDeep(t *testing.T) {
	p := &Profile{
		Name:            "Ada",
		KidsDetails:     &KidsDetails{Count: 1, ChildActivities: []string{"Swim"}},
		ReligionDetails: &ReligionDetails{PrayerTimes: []string{"05:00"}},
		AlarmSettings:   &AlarmSettings{LeadTimeMinutes: 10},
	}
	c := p.Clone()
	c.KidsDetails.ChildActivities[0] = "Chess"
	c.ReligionDetails.PrayerTimes[0] = "06:00"
	c.AlarmSettings.LeadTimeMinutes = 30

	assert.Equal(t, "Swim", p.KidsDetails.ChildActivities[0])
	assert.Equal(t, "05:00", p.ReligionDetails.PrayerTimes[0])
	assert.Equal(t, 10, p.LeadTime())

	var nilProfile *Profile
	assert.Nil(t, nilProfile.Clone())
}
