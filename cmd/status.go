package main

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/pricewatch/internal/monitoring"
)

var statusLookbackHours int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show collection health over a lookback window",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		snap, err := monitoring.NewCollector(st).Collect(ctx, statusLookbackHours)
		if err != nil {
			return eris.Wrap(err, "collect status")
		}

		out, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal status")
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	statusCmd.Flags().IntVar(&statusLookbackHours, "hours", 24, "lookback window in hours")
	rootCmd.AddCommand(statusCmd)
}
