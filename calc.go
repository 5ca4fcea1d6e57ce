package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nconklindev/profitcalc/internal/calculator"
	"github.com/nconklindev/profitcalc/internal/types"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type calcOptions struct {
	input          types.InputSet
	landedCostPath string
	profitCalcPath string
	outputDir      string
	downloadDir    string
}

func newCalcCmd() *cobra.Command {
	var opts calcOptions

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Run one calculation without the interactive form",
		Example: `  profitcalc calc --keyword WidgetX --shipping-total 10 --unit-cost 5 \
    --target-sales 100 --selling-price 29.99 --fulfillment-fee 3.5 --storage-cost 0.75 \
    --landed-cost "Landed Cost HFBA.xlsx" --profit-calc "Profit Calculator.xlsx"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalc(cmd.OutOrStdout(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.input.Keyword, "keyword", "", "Keyword (product) name")
	f.Float64Var(&opts.input.ShippingTotal, "shipping-total", 0, "Shipping total")
	f.Float64Var(&opts.input.UnitCost, "unit-cost", 0, "Unit cost")
	f.IntVar(&opts.input.TargetSalesPerMonth, "target-sales", 0, "Target sales per month")
	f.Float64Var(&opts.input.SellingPrice, "selling-price", 0, "Selling price")
	f.Float64Var(&opts.input.FulfillmentFee, "fulfillment-fee", 0, "Fulfillment fee")
	f.Float64Var(&opts.input.StorageCost, "storage-cost", 0, "Storage cost")
	f.StringVar(&opts.landedCostPath, "landed-cost", "", "Landed Cost HFBA workbook (.xlsx)")
	f.StringVar(&opts.profitCalcPath, "profit-calc", "", "Profit Calculator workbook (.xlsx)")
	f.StringVar(&opts.outputDir, "output-dir", "", "Directory for the dated output file (overrides config)")
	f.StringVar(&opts.downloadDir, "download-dir", "", "Directory for the download copy (overrides config)")
	_ = cmd.MarkFlagRequired("landed-cost")
	_ = cmd.MarkFlagRequired("profit-calc")

	return cmd
}

func runCalc(w io.Writer, opts calcOptions) error {
	if err := opts.input.Validate(); err != nil {
		return err
	}

	runCfg := cfg
	if opts.outputDir != "" {
		runCfg.OutputDir = opts.outputDir
	}
	if opts.downloadDir != "" {
		runCfg.DownloadDir = opts.downloadDir
	}
	calc := calculator.New(runCfg, logger)

	landed, err := calc.Open(opts.landedCostPath)
	if err != nil {
		return errors.New(calculator.UserMessage(err))
	}
	profit, err := calc.Open(opts.profitCalcPath)
	if err != nil {
		return errors.New(calculator.UserMessage(err))
	}

	outcome, err := calc.Run(opts.input, landed, profit, nil)
	if err != nil {
		return errors.New(calculator.UserMessage(err))
	}

	p := message.NewPrinter(language.English)
	p.Fprintf(w, "Calculated Landed Cost: %.4f\n", outcome.LandedCost.Value)
	if outcome.LandedCost.WasFallback {
		fmt.Fprintln(w, "Warning: failed to retrieve recalculated Landed Cost. Using fallback manual calculation.")
	}
	fmt.Fprintf(w, "Sheets: %s\n", strings.Join(outcome.SheetNames, ", "))
	fmt.Fprintf(w, "Saved: %s\n", outcome.ArtifactPath)
	if outcome.DownloadPath != "" {
		fmt.Fprintf(w, "Download: %s\n", outcome.DownloadPath)
	}
	return nil
}
