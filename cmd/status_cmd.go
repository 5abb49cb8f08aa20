// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	jsonlib "github.com/lakesift/lakesift/internal/json"
)

var errNoBatchID = errors.New("a batch identifier is required")

var statusCmd = &cobra.Command{
	Use:    "status",
	Short:  "Shows the latest manifest entry for a batch",
	PreRun: statusFlagBinding,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSignalWatcher(func(ctx context.Context) error {
			batchID := viper.GetString("batch-id")
			if batchID == "" {
				return errNoBatchID
			}

			sp, _ := pterm.DefaultSpinner.WithText("checking manifest...").Start()

			store, err := newManifestStore(ctx)
			if err != nil {
				sp.Fail(err.Error())
				return err
			}
			defer store.Close()

			entry, err := store.Latest(ctx, batchID)
			if err != nil {
				sp.Fail(err.Error())
				return err
			}
			if entry == nil {
				sp.Warning(fmt.Sprintf("no manifest entry for batch %q", batchID))
				return nil
			}

			sp.Success(fmt.Sprintf("batch %q last processed at %s (%d rows, hash %s)",
				entry.BatchID, entry.ProcessedAt.Format(time.RFC3339), entry.RowCount, entry.ContentHash))

			if cmd.Flags().Lookup("json").Value.String() == trueStr {
				data, err := jsonlib.MarshalIndent(entry, "", "\t")
				if err != nil {
					return err
				}
				fmt.Println(string(data)) //nolint:forbidigo
			}
			return nil
		})(cmd, args)
	},
	Example: `
	lakesift status --batch-id books --manifest manifests/manifest.jsonl
	lakesift status --batch-id books --manifest-url <postgres-url> --json
	`,
}

func statusFlagBinding(cmd *cobra.Command, _ []string) {
	viper.BindPFlag("batch-id", cmd.Flags().Lookup("batch-id"))
	viper.BindPFlag("manifest", cmd.Flags().Lookup("manifest"))
	viper.BindPFlag("manifest-url", cmd.Flags().Lookup("manifest-url"))
}
