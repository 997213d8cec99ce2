package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/relaydash/internal/app"
)

var (
	watchInterval time.Duration
	watchRefresh  time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Sync headless and log every change",
	Long: `Run the bulk fetch and the push channel without the dashboard. Every
change that reaches the local model is logged to stderr.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", time.Second, "how often to compare the model")
	watchCmd.Flags().DurationVar(&watchRefresh, "refresh", 0, "periodic full refetch (0 disables)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	core, err := openCore(cmd)
	if err != nil {
		return err
	}
	defer core.Close()

	return app.Watch(cmd.Context(), core, app.WatchOptions{
		Interval:     watchInterval,
		RefreshEvery: watchRefresh,
	})
}
