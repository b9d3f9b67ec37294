package main

import (
	"context"
	"errors"

	"expensetracker/internal/cli"
	"expensetracker/internal/services"

	"github.com/spf13/cobra"
)

var ocrRetryInterval = services.DefaultOCRProcessorConfig().RetryInterval

func init() {
	ocrListenCmd.Flags().DurationVar(&ocrRetryInterval, "retry-interval", ocrRetryInterval, "wait between broker resubscribe attempts")
	ocrCmd.AddCommand(ocrListenCmd)
	rootCmd.AddCommand(ocrCmd)
}

var ocrCmd = &cobra.Command{
	Use:   "ocr",
	Short: "Exchange receipts with the OCR worker",
}

var ocrListenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Apply OCR results from the broker to their expenses",
	Long: `Consume OCR results from AMQP_RESULT_QUEUE and write the extracted
details onto the matching expenses until interrupted. Requires AMQP_URL.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if app.AMQP == nil {
			return errors.New("OCR listener requires a reachable AMQP broker (set AMQP_URL)")
		}
		ctx := cmd.Context()

		processor := services.NewOCRProcessor(app.AMQP, app.Service, services.OCRProcessorConfig{
			RetryInterval: ocrRetryInterval,
		})
		if err := processor.Start(ctx); err != nil {
			return err
		}
		app.Logger.InfoContext(ctx, "Listening for OCR results", "queue", app.Config.AMQPResultQueue)

		select {
		case <-ctx.Done():
		case <-processor.Done():
		}

		stopCtx, cancel := context.WithTimeout(context.Background(), cli.ShutdownTimeout)
		defer cancel()
		return processor.Stop(stopCtx)
	},
}
