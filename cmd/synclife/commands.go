package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"synclife/internal/model"
	"synclife/internal/service"
)

const noScheduleHint = "No schedule yet. Run `synclife onboard --profile profile.yaml` first."

func newOnboardCmd(a *app) *cobra.Command {
	var profilePath string
	cmd := &cobra.Command{
		Use:   "onboard",
		Short: "Generate a weekly schedule from a profile file",
		Long: `Reads the onboarding answers from a YAML file, asks the generator for a
seven day schedule and stores both. A failed generation keeps the previous schedule.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := readProfile(profilePath)
			if err != nil {
				return err
			}
			gen, err := a.newGenerator(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			if err := a.openSession(cmd.Context(), gen, nil); err != nil {
				return err
			}
			week, err := a.session.Onboard(cmd.Context(), profile)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schedule ready for %s.\n\n", profile.Name)
			printDay(cmd.OutOrStdout(), week, 0)
			return nil
		},
	}
	cmd.Flags().StringVarP(&profilePath, "profile", "p", "profile.yaml", "YAML profile file")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	var day int
	var week bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a day or the whole week",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.openSession(cmd.Context(), nil, nil); err != nil {
				return err
			}
			_, schedule := a.session.Snapshot()
			out := cmd.OutOrStdout()
			if schedule == nil {
				fmt.Fprintln(out, noScheduleHint)
				return nil
			}
			if week {
				for i, plan := range schedule.Plans {
					fmt.Fprintf(out, "%d. %-12s %2d tasks  %3d%% done\n", i+1, plan.Date, len(plan.Tasks), plan.Progress())
				}
				return nil
			}
			idx, err := dayIndex(day)
			if err != nil {
				return err
			}
			printDay(out, schedule, idx)
			return nil
		},
	}
	cmd.Flags().IntVarP(&day, "day", "d", 1, "day of the week (1-7)")
	cmd.Flags().BoolVarP(&week, "week", "w", false, "show the week overview")
	return cmd
}

func newAddCmd(a *app) *cobra.Command {
	var (
		day      int
		at       string
		category string
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task to a day",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := dayIndex(day)
			if err != nil {
				return err
			}
			if err := a.openSession(cmd.Context(), nil, nil); err != nil {
				return err
			}
			task, err := a.session.AddTask(cmd.Context(), idx, strings.Join(args, " "), at, model.Category(category))
			if err != nil {
				return noScheduleAware(err)
			}
			if task == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing added: the title is empty.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s at %s (%s) id=%s\n", task.Title, task.Time, task.Category, task.ID)
			return nil
		},
	}
	cmd.Flags().IntVarP(&day, "day", "d", 1, "day of the week (1-7)")
	cmd.Flags().StringVarP(&at, "time", "t", "", "time as HH:MM")
	cmd.Flags().StringVarP(&category, "category", "c", string(model.CategoryPersonal),
		"one of "+strings.Join(model.CategoryStrings(), ", "))
	_ = cmd.MarkFlagRequired("time")
	return cmd
}

func newToggleCmd(a *app) *cobra.Command {
	var day int
	var alarm bool
	cmd := &cobra.Command{
		Use:   "toggle <task-id>",
		Short: "Flip a task between done and not done, or flip its alarm",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := dayIndex(day)
			if err != nil {
				return err
			}
			if err := a.openSession(cmd.Context(), nil, nil); err != nil {
				return err
			}
			if alarm {
				err = a.session.ToggleAlarm(cmd.Context(), idx, args[0])
			} else {
				err = a.session.ToggleTaskCompletion(cmd.Context(), idx, args[0])
			}
			if err != nil {
				return noScheduleAware(err)
			}
			_, schedule := a.session.Snapshot()
			printDay(cmd.OutOrStdout(), schedule, idx)
			return nil
		},
	}
	cmd.Flags().IntVarP(&day, "day", "d", 1, "day of the week (1-7)")
	cmd.Flags().BoolVar(&alarm, "alarm", false, "toggle the alarm instead of completion")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var day int
	cmd := &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Remove a task from a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := dayIndex(day)
			if err != nil {
				return err
			}
			if err := a.openSession(cmd.Context(), nil, nil); err != nil {
				return err
			}
			if err := a.session.DeleteTask(cmd.Context(), idx, args[0]); err != nil {
				return noScheduleAware(err)
			}
			_, schedule := a.session.Snapshot()
			printDay(cmd.OutOrStdout(), schedule, idx)
			return nil
		},
	}
	cmd.Flags().IntVarP(&day, "day", "d", 1, "day of the week (1-7)")
	return cmd
}

func newResetCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the stored profile and schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("reset deletes everything, pass --yes to confirm")
			}
			if err := a.openSession(cmd.Context(), nil, nil); err != nil {
				return err
			}
			if err := a.session.ClearSession(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Session cleared.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

func readProfile(path string) (*model.Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	var p model.Profile
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	p.Normalize()
	return &p, nil
}

func dayIndex(day int) (int, error) {
	if day < 1 || day > model.DaysPerWeek {
		return 0, fmt.Errorf("--day must be between 1 and %d", model.DaysPerWeek)
	}
	return day - 1, nil
}

func noScheduleAware(err error) error {
	if errors.Is(err, service.ErrNoSchedule) {
		return errors.New(noScheduleHint)
	}
	return err
}

func printDay(w io.Writer, week *model.WeeklySchedule, idx int) {
	plan := week.Day(idx)
	if plan == nil {
		fmt.Fprintln(w, noScheduleHint)
		return
	}
	fmt.Fprintf(w, "%s  (%d%% done)\n", plan.Date, plan.Progress())
	fmt.Fprintf(w, "\"%s\"\n\n", plan.MotivationQuote)
	for _, t := range plan.Tasks {
		done := " "
		if t.Completed {
			done = "x"
		}
		bell := ""
		if t.AlarmEnabled {
			bell = " *"
		}
		fmt.Fprintf(w, "[%s] %s  %-28s %-9s %s%s\n", done, t.Time, t.Title, t.Category, t.ID, bell)
	}
	m := plan.Meals
	fmt.Fprintf(w, "\nBreakfast: %s\nLunch: %s\nDinner: %s\nSnack: %s\n", m.Breakfast, m.Lunch, m.Dinner, m.Snack)
}
