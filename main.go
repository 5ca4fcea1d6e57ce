package main

import (
	"fmt"
	"os"

	"github.com/nconklindev/profitcalc/internal/calculator"
	"github.com/nconklindev/profitcalc/internal/config"
	"github.com/nconklindev/profitcalc/internal/logging"
	"github.com/nconklindev/profitcalc/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath  string
	logFile     string
	debug       bool
	showVersion bool

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "profitcalc",
	Short: "Fill the Landed Cost and Profit Calculator workbooks for a keyword",
	Long: `profitcalc writes a product's costs into the Landed Cost HFBA workbook,
reads back the recalculated landed cost, fills in the Profit Calculator
workbook and combines both into a single xlsx file.

Run without arguments to start the interactive form.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			return nil
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if logFile != "" {
			cfg.LogFile = logFile
		}

		logger, err = logging.New(cfg.LogFile, debug)
		if err != nil {
			return err
		}
		logger.Info("Profit Calculator Tool started", zap.String("version", version))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Printf("profitcalc %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
			return nil
		}

		calc := calculator.New(cfg, logger)
		p := tea.NewProgram(ui.InitialModel(calc), tea.WithAltScreen(), tea.WithMouseCellMotion())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("run interface: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML file overriding template cell addresses and output settings")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Debug log path (default: profit_calculator_debug.log)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", true, "Log at debug level")
	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "Print version information")

	rootCmd.AddCommand(newCalcCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
