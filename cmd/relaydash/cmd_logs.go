package main

import (
	"github.com/spf13/cobra"

	"github.com/five82/relaydash/internal/relay"
	"github.com/five82/relaydash/internal/state"
)

var (
	logsDevice string
	logsLimit  int
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show recent device activity, newest first",
	Args:  cobra.NoArgs,
	RunE:  runLogs,
}

func init() {
	logsCmd.Flags().StringVar(&logsDevice, "device", "", "only entries for this device id or name")
	logsCmd.Flags().IntVar(&logsLimit, "limit", 0, "number of entries (default log_limit from config)")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, _ []string) error {
	core, err := openCore(cmd)
	if err != nil {
		return err
	}
	defer core.Close()

	ctx := cmd.Context()
	devices, err := core.Client.FetchDevices(ctx)
	if err != nil {
		return err
	}
	snap := state.Snapshot{Devices: devices}

	query := relay.LogQuery{Limit: logsLimit}
	if query.Limit <= 0 {
		query.Limit = core.Config.LogLimit
	}
	if logsDevice != "" {
		d, err := snap.FindDevice(logsDevice)
		if err != nil {
			return err
		}
		query.DeviceID = d.ID
	}

	snap.Logs, err = core.Client.FetchLogs(ctx, query)
	if err != nil {
		return err
	}
	writeLogs(cmd.OutOrStdout(), snap)
	return nil
}
