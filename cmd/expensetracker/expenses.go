package main

import (
	"fmt"
	"io"
	"os"

	"expensetracker/internal/boundary"
	"expensetracker/internal/core"

	"github.com/spf13/cobra"
)

type detailFlags struct {
	date     string
	store    string
	total    string
	currency string
	location string
	ocrText  string
}

func (f *detailFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.date, "date", "", "receipt date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.store, "store", "", "store name")
	cmd.Flags().StringVar(&f.total, "total", "", "total amount, e.g. 12.34")
	cmd.Flags().StringVar(&f.currency, "currency", "", "3-letter currency code")
	cmd.Flags().StringVar(&f.location, "location", "", "store location")
	cmd.Flags().StringVar(&f.ocrText, "ocr-text", "", "raw OCR text")
}

func (f *detailFlags) details() (core.ExpenseDetails, error) {
	d := core.ExpenseDetails{
		ReceiptDate: f.date,
		StoreName:   f.store,
		Currency:    f.currency,
		Location:    f.location,
		OCRRawText:  f.ocrText,
	}
	if f.total != "" {
		cents, err := core.ParseDecimalToCents(f.total)
		if err != nil {
			return core.ExpenseDetails{}, err
		}
		d.TotalAmount = &core.Money{Cents: cents}
	}
	return d, nil
}

var (
	addFlags    detailFlags
	addProject  int64
	addReceipt  string
	addFile     string
	updateFlags detailFlags
)

func init() {
	addFlags.register(expensesAddCmd)
	expensesAddCmd.Flags().Int64Var(&addProject, "project", 0, "project id (required)")
	expensesAddCmd.Flags().StringVar(&addReceipt, "receipt", "", "reference of an already stored receipt")
	expensesAddCmd.Flags().StringVar(&addFile, "file", "", "receipt image to store first")
	_ = expensesAddCmd.MarkFlagRequired("project")
	expensesAddCmd.MarkFlagsOneRequired("receipt", "file")
	expensesAddCmd.MarkFlagsMutuallyExclusive("receipt", "file")

	updateFlags.register(expensesUpdateCmd)

	expensesCmd.AddCommand(expensesListCmd, expensesAddCmd, expensesUpdateCmd, expensesDeleteCmd, expensesExportCmd)
	rootCmd.AddCommand(expensesCmd)
}

var expensesCmd = &cobra.Command{
	Use:   "expenses",
	Short: "Manage the expenses of a project",
}

var expensesListCmd = &cobra.Command{
	Use:   "list <project-id>",
	Short: "List a project's expenses in the order they were added",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := parseID(args[0], "project id")
		if err != nil {
			return err
		}
		if _, err := app.Records.GetProject(cmd.Context(), projectID); err != nil {
			return err
		}
		expenses, err := app.Service.ListExpenses(cmd.Context(), projectID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, boundary.NewExpenseViews(expenses))
		}
		return table(out, "ID\tDATE\tSTORE\tTOTAL\tRECEIPT\tADDED", func(tw io.Writer) {
			for _, e := range expenses {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
					e.ID, orDash(e.ReceiptDate), orDash(e.StoreName), amount(e), e.ReceiptImagePath, ago(e.DateAdded))
			}
		})
	},
}

var expensesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record an expense for a receipt",
	Long: `Record an expense. The receipt is either a reference returned by
"receipts store" (--receipt) or an image file stored on the fly (--file).

Examples:
  expensetracker expenses add --project 1 --file scan.jpg --total 18.90 --currency EUR
  expensetracker expenses add --project 1 --receipt receipts/0b7c...jpeg`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		details, err := addFlags.details()
		if err != nil {
			return err
		}

		ref := addReceipt
		if addFile != "" {
			if _, err := app.Records.GetProject(ctx, addProject); err != nil {
				return err
			}
			data, err := os.ReadFile(addFile)
			if err != nil {
				return fmt.Errorf("read %s: %w", addFile, err)
			}
			if ref, err = app.Service.StoreReceiptImage(ctx, encodeImage(data)); err != nil {
				return err
			}
		}

		e, err := app.Service.CreateExpense(ctx, core.NewExpense{
			ProjectID:        addProject,
			ReceiptImagePath: ref,
			ExpenseDetails:   details,
		})
		if err != nil {
			if addFile != "" {
				_ = app.Blobs.Remove(ctx, ref)
			}
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), boundary.NewExpenseView(e))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created expense %d (%s)\n", e.ID, e.ReceiptImagePath)
		return nil
	},
}

var expensesUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Replace the details of an expense",
	Long: `Replace the optional details of an expense. Details not given are
cleared; the project, receipt and date added never change.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "expense id")
		if err != nil {
			return err
		}
		details, err := updateFlags.details()
		if err != nil {
			return err
		}
		e, err := app.Service.UpdateExpenseDetails(cmd.Context(), id, details)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), boundary.NewExpenseView(e))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated expense %d\n", e.ID)
		return nil
	},
}

var expensesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an expense and its receipt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "expense id")
		if err != nil {
			return err
		}
		if err := app.Service.DeleteExpense(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted expense %d\n", id)
		return nil
	},
}

var expensesExportCmd = &cobra.Command{
	Use:   "export <project-id>",
	Short: "Append a project's expenses to the configured Google Sheet",
	Long: `Append every expense of a project to GOOGLE_SHEET_NAME in
GOOGLE_SPREADSHEET_ID, using the service account from
GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
GOOGLE_APPLICATION_CREDENTIALS.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := parseID(args[0], "project id")
		if err != nil {
			return err
		}
		ref, err := app.Service.ExportProject(cmd.Context(), projectID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", ref)
		return nil
	},
}
