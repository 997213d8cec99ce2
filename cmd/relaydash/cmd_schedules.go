package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/relaydash/internal/relay"
	"github.com/five82/relaydash/internal/state"
)

var schedulesCmd = &cobra.Command{
	Use:   "schedules",
	Short: "List schedules with their devices",
	Args:  cobra.NoArgs,
	RunE:  runSchedules,
}

var schedulesFor string

var (
	scheduleDevice string
	scheduleName   string
	scheduleType   string
	scheduleTarget string
	scheduleAt     string
	scheduleDays   string
	scheduleDate   string
)

var addScheduleCmd = &cobra.Command{
	Use:   "add-schedule",
	Short: "Create a daily, weekly or one-time schedule",
	Example: `  relaydash add-schedule --device Lamp --name Evening --at 19:00 --target on
  relaydash add-schedule --device Lamp --name Weekdays --type weekly --days mon,tue,wed,thu,fri --at 07:00 --target on
  relaydash add-schedule --device Fan --name Once --type once --date 2026-03-01 --at 12:30 --target off`,
	Args: cobra.NoArgs,
	RunE: runAddSchedule,
}

var toggleScheduleCmd = &cobra.Command{
	Use:   "toggle-schedule <schedule-id>",
	Short: "Pause or resume a schedule",
	Args:  cobra.ExactArgs(1),
	RunE:  runToggleSchedule,
}

var deleteScheduleCmd = &cobra.Command{
	Use:   "delete-schedule <schedule-id>",
	Short: "Delete a schedule",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeleteSchedule,
}

func init() {
	f := addScheduleCmd.Flags()
	f.StringVar(&scheduleDevice, "device", "", "device id or name")
	f.StringVar(&scheduleName, "name", "", "schedule name")
	f.StringVar(&scheduleType, "type", string(relay.ScheduleDaily), "daily, weekly or once")
	f.StringVar(&scheduleTarget, "target", string(relay.RelayOn), "relay state to set: on or off")
	f.StringVar(&scheduleAt, "at", "", "trigger time as HH:MM")
	f.StringVar(&scheduleDays, "days", "", "weekdays for weekly schedules, e.g. mon,wed or 0,2")
	f.StringVar(&scheduleDate, "date", "", "date for one-time schedules as YYYY-MM-DD")
	_ = addScheduleCmd.MarkFlagRequired("device")
	_ = addScheduleCmd.MarkFlagRequired("name")
	_ = addScheduleCmd.MarkFlagRequired("at")

	schedulesCmd.Flags().StringVar(&schedulesFor, "device", "", "only schedules for this device id or name")

	rootCmd.AddCommand(schedulesCmd, addScheduleCmd, toggleScheduleCmd, deleteScheduleCmd)
}

func runSchedules(cmd *cobra.Command, _ []string) error {
	core, err := openCore(cmd)
	if err != nil {
		return err
	}
	defer core.Close()

	ctx := cmd.Context()
	if schedulesFor != "" {
		device, err := lookupDevice(ctx, core.Client, schedulesFor)
		if err != nil {
			return err
		}
		schedules, err := core.Client.FetchDeviceSchedules(ctx, device.ID)
		if err != nil {
			return err
		}
		writeSchedules(cmd.OutOrStdout(), state.Snapshot{Devices: []relay.Device{device}, Schedules: schedules})
		return nil
	}

	if err := core.Syncer.FetchAll(ctx); err != nil {
		return err
	}
	writeSchedules(cmd.OutOrStdout(), core.Store.Snapshot())
	return nil
}

func runAddSchedule(cmd *cobra.Command, _ []string) error {
	target, err := relay.ParseRelayState(scheduleTarget)
	if err != nil {
		return err
	}
	in := relay.NewSchedule{
		Name:         scheduleName,
		ScheduleType: relay.ScheduleType(strings.ToLower(strings.TrimSpace(scheduleType))),
		TargetState:  target,
		TriggerTime:  strings.TrimSpace(scheduleAt),
		DaysOfWeek:   []int{},
	}
	switch in.ScheduleType {
	case relay.ScheduleWeekly:
		if in.DaysOfWeek, err = relay.ParseDays(scheduleDays); err != nil {
			return err
		}
	case relay.ScheduleOnce:
		if in.TriggerDate, err = relay.ParseTriggerDate(scheduleDate); err != nil {
			return err
		}
	}

	core, err := openCore(cmd)
	if err != nil {
		return err
	}
	defer core.Close()

	ctx := cmd.Context()
	if err := core.Syncer.FetchAll(ctx); err != nil {
		return err
	}
	device, err := core.Store.Snapshot().FindDevice(scheduleDevice)
	if err != nil {
		return err
	}
	in.DeviceID = device.ID

	if err := core.Gateway.AddSchedule(ctx, in); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s schedule %q for %s at %s\n", in.ScheduleType, in.Name, device.Name, in.TriggerTime)
	return nil
}

func runToggleSchedule(cmd *cobra.Command, args []string) error {
	core, err := openCore(cmd)
	if err != nil {
		return err
	}
	defer core.Close()

	ctx := cmd.Context()
	if err := core.Gateway.ToggleSchedule(ctx, args[0]); err != nil {
		return err
	}
	for _, s := range core.Store.Snapshot().Schedules {
		if s.ID == args[0] {
			state := "paused"
			if s.IsActive {
				state = "active"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", s.Name, state)
			return nil
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Schedule toggled")
	return nil
}

func runDeleteSchedule(cmd *cobra.Command, args []string) error {
	core, err := openCore(cmd)
	if err != nil {
		return err
	}
	defer core.Close()

	if err := core.Gateway.DeleteSchedule(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Schedule deleted")
	return nil
}
