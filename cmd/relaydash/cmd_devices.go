package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/relaydash/internal/relay"
	"github.com/five82/relaydash/internal/state"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show backend version and fleet statistics",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

var devicesCmd = &cobra.Command{
	Use:     "devices",
	Aliases: []string{"ls"},
	Short:   "List devices",
	Args:    cobra.NoArgs,
	RunE:    runDevices,
}

var deviceCmd = &cobra.Command{
	Use:   "device <device>",
	Short: "Show one device and its schedules",
	Long:  `Show one device, read fresh from the backend, with the schedules that target it.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDevice,
}

var controlCmd = &cobra.Command{
	Use:       "control <device> on|off",
	Short:     "Switch a relay on or off",
	Long:      `Switch a relay. The device may be given by id or by its unique name.`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"on", "off"},
	RunE:      runControl,
}

var (
	deviceName string
	deviceRoom string
	devicePin  int
	deviceType string
)

var addDeviceCmd = &cobra.Command{
	Use:   "add-device",
	Short: "Register a new device",
	Args:  cobra.NoArgs,
	RunE:  runAddDevice,
}

var updateDeviceCmd = &cobra.Command{
	Use:   "update-device <device>",
	Short: "Rename, move or rewire a device",
	Long:  `Only the flags given are sent; other fields are left as they are.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runUpdateDevice,
}

var deleteDeviceCmd = &cobra.Command{
	Use:   "delete-device <device>",
	Short: "Delete a device and its schedules",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeleteDevice,
}

func init() {
	addDeviceCmd.Flags().StringVar(&deviceName, "name", "", "device name")
	addDeviceCmd.Flags().StringVar(&deviceRoom, "room", "", "room the device is in")
	addDeviceCmd.Flags().IntVar(&devicePin, "pin", 0, "GPIO pin driving the relay")
	addDeviceCmd.Flags().StringVar(&deviceType, "type", "", "relay, switch or sensor (default relay)")
	_ = addDeviceCmd.MarkFlagRequired("name")
	_ = addDeviceCmd.MarkFlagRequired("room")
	_ = addDeviceCmd.MarkFlagRequired("pin")

	updateDeviceCmd.Flags().StringVar(&deviceName, "name", "", "new name")
	updateDeviceCmd.Flags().StringVar(&deviceRoom, "room", "", "new room")
	updateDeviceCmd.Flags().IntVar(&devicePin, "pin", 0, "new GPIO pin")

	rootCmd.AddCommand(infoCmd, devicesCmd, deviceCmd, controlCmd, addDeviceCmd, updateDeviceCmd, deleteDeviceCmd)
}

func runInfo(cmd *cobra.Command, _ []string) error {
	core, err := openCore(cmd)
	if err != nil {
		return err
	}
	defer core.Close()

	info, err := core.Client.FetchInfo(cmd.Context())
	if err != nil {
		return err
	}
	stats, err := core.Client.FetchStats(cmd.Context())
	if err != nil {
		return err
	}
	writeInfo(cmd.OutOrStdout(), core.Client.BaseURL(), info, stats)
	return nil
}

func runDevices(cmd *cobra.Command, _ []string) error {
	core, err := openCore(cmd)
	if err != nil {
		return err
	}
	defer core.Close()

	devices, err := core.Client.FetchDevices(cmd.Context())
	if err != nil {
		return err
	}
	writeDevices(cmd.OutOrStdout(), devices)
	return nil
}

func runDevice(cmd *cobra.Command, args []string) error {
	core, err := openCore(cmd)
	if err != nil {
		return err
	}
	defer core.Close()

	ctx := cmd.Context()
	device, err := lookupDevice(ctx, core.Client, args[0])
	if err != nil {
		return err
	}
	schedules, err := core.Client.FetchDeviceSchedules(ctx, device.ID)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	writeDevice(w, device)
	fmt.Fprintln(w)
	writeSchedules(w, state.Snapshot{Devices: []relay.Device{device}, Schedules: schedules})
	return nil
}

// lookupDevice reads a device by id, falling back to a unique name match
// over the full list when no device has that id.
func lookupDevice(ctx context.Context, client *relay.Client, ref string) (relay.Device, error) {
	device, err := client.FetchDevice(ctx, ref)
	if err == nil {
		return device, nil
	}
	if !errors.Is(err, relay.ErrNotFound) {
		return relay.Device{}, err
	}
	devices, err := client.FetchDevices(ctx)
	if err != nil {
		return relay.Device{}, err
	}
	return state.Snapshot{Devices: devices}.FindDevice(ref)
}

func runControl(cmd *cobra.Command, args []string) error {
	target, err := relay.ParseRelayState(args[1])
	if err != nil {
		return err
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
	device, err := core.Store.Snapshot().FindDevice(args[0])
	if err != nil {
		return err
	}
	if err := core.Gateway.ControlDevice(ctx, device.ID, target); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s turned %s\n", device.Name, target)
	return nil
}

func runAddDevice(cmd *cobra.Command, _ []string) error {
	core, err := openCore(cmd)
	if err != nil {
		return err
	}
	defer core.Close()

	in := relay.NewDevice{
		Name:       deviceName,
		Room:       deviceRoom,
		GPIOPin:    devicePin,
		DeviceType: relay.DeviceType(deviceType),
	}
	if err := core.Gateway.AddDevice(cmd.Context(), in); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s in %s on pin %d\n", in.Name, in.Room, in.GPIOPin)
	return nil
}

func runUpdateDevice(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if !flags.Changed("name") && !flags.Changed("room") && !flags.Changed("pin") {
		return fmt.Errorf("nothing to update: pass --name, --room or --pin")
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
	device, err := core.Store.Snapshot().FindDevice(args[0])
	if err != nil {
		return err
	}

	var in relay.DeviceUpdate
	if flags.Changed("name") {
		in.Name = &deviceName
	}
	if flags.Changed("room") {
		in.Room = &deviceRoom
	}
	if flags.Changed("pin") {
		in.GPIOPin = &devicePin
	}
	if err := core.Gateway.UpdateDevice(ctx, device.ID, in); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", device.Name)
	return nil
}

func runDeleteDevice(cmd *cobra.Command, args []string) error {
	core, err := openCore(cmd)
	if err != nil {
		return err
	}
	defer core.Close()

	ctx := cmd.Context()
	if err := core.Syncer.FetchAll(ctx); err != nil {
		return err
	}
	device, err := core.Store.Snapshot().FindDevice(args[0])
	if err != nil {
		return err
	}
	if err := core.Gateway.DeleteDevice(ctx, device.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", device.Name)
	return nil
}
