package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

type statusView struct {
	Phase         string `json:"phase"`
	SchemaVersion uint   `json:"schema_version"`
	DBPath        string `json:"db_path"`
	DataDir       string `json:"data_dir"`
	ReceiptsDir   string `json:"receipts_dir"`
	AMQP          bool   `json:"amqp"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Initialize the stores if needed and report where they live",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		v := statusView{
			Phase:         app.Records.Phase().String(),
			SchemaVersion: app.Records.SchemaVersion(),
			DBPath:        app.Config.DBPath,
			DataDir:       app.Blobs.Root(),
			ReceiptsDir:   app.Config.ReceiptsDir,
			AMQP:          app.AMQP != nil,
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), v)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Record store:   %s (schema v%d)\n", v.Phase, v.SchemaVersion)
		fmt.Fprintf(out, "Database:       %s\n", v.DBPath)
		fmt.Fprintf(out, "Data directory: %s\n", v.DataDir)
		fmt.Fprintf(out, "Receipts:       %s\n", v.ReceiptsDir)
		fmt.Fprintf(out, "OCR broker:     %t\n", v.AMQP)
		return nil
	},
}
