package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"dauchez-konnector/lib/serviceutil"
	"dauchez-konnector/lib/telemetry"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	billsCmd.AddCommand(listBillsCmd)
	rootCmd.AddCommand(billsCmd)
}

var billsCmd = &cobra.Command{
	Use:   "bills",
	Short: "Inspect the locally saved bills.",
}

var listBillsCmd = &cobra.Command{
	Use:   "list",
	Short: "List the bills indexed in the local store.",
	Run: func(cmd *cobra.Command, args []string) {
		config := loadConfig()
		telemetry.InitSlog(config.Debug)

		store := openStore(config)
		bills, err := store.List(context.Background())
		if err != nil {
			serviceutil.Fatal("failed to list bills", err)
		}

		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Date", "Title", "Amount", "Filename"})
		for _, bill := range bills {
			t.AppendRow(table.Row{
				time.Unix(bill.Date, 0).UTC().Format("2006-01-02"),
				bill.Title,
				fmt.Sprintf("%.2f %s", bill.Amount, bill.Currency),
				bill.Filename,
			})
		}
		t.Render()
	},
}
