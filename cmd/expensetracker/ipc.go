package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(ipcCmd)
}

var ipcCmd = &cobra.Command{
	Use:   "ipc",
	Short: "Serve newline-delimited JSON requests on stdin",
	Long: `Serve requests from the desktop UI. Each stdin line is a request
{"id":1,"channel":"db:getProjects","args":[]} and each stdout line the
matching response. Logs go to stderr. The loop ends at end of input or on
SIGINT/SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Handler.Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
	},
}
