package main

import (
	"fmt"
	"os"

	"github.com/nconklindev/tidysheet/internal/config"
	"github.com/nconklindev/tidysheet/internal/logging"
	"github.com/nconklindev/tidysheet/internal/pipeline"
	"github.com/nconklindev/tidysheet/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	outputDir   string
	chartsDir   string
	outputName  string
	logLevel    string
	envFile     string
	noCharts    bool
	interactive bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tidysheet [input.xlsx]",
		Short: "Clean every sheet of an NGO spreadsheet and chart the result",
		Long: `tidysheet reads every sheet of a spreadsheet, removes duplicate and empty
rows, fills missing values, normalizes dates and text, writes the cleaned
sheets to one timestamped workbook and renders exploratory charts per sheet.`,
		Args:          cobra.MaximumNArgs(1),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	rootCmd.SetVersionTemplate(fmt.Sprintf("tidysheet %s\ncommit: %s\nbuilt: %s\n", version, commit, date))

	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for the cleaned workbook (default: dados_limpos)")
	rootCmd.Flags().StringVar(&chartsDir, "charts-dir", "", "Directory for chart images (default: graficos)")
	rootCmd.Flags().StringVarP(&outputName, "name", "n", "", "Output file name (default: ong_dados_limpos_<timestamp>.xlsx)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.Flags().StringVar(&envFile, "env-file", config.DefaultEnvFile, "Environment file to load")
	rootCmd.Flags().BoolVar(&noCharts, "no-charts", false, "Skip chart rendering")
	rootCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Pick the input file and sheets interactively")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.ErrorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		cfg.InputPath = args[0]
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if chartsDir != "" {
		cfg.ChartsDir = chartsDir
	}
	if outputName != "" {
		cfg.OutputName = outputName
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if noCharts {
		cfg.Charts = false
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	if interactive {
		p := tea.NewProgram(ui.InitialModel(*cfg), tea.WithAltScreen(), tea.WithMouseCellMotion())
		_, err := p.Run()
		return err
	}

	logger := logging.New(os.Stderr, cfg.SlogLevel())
	result, err := pipeline.Run(cfg, logger, pipeline.Options{})
	if err != nil {
		return err
	}

	fmt.Println(ui.Summary(result, 0))
	return nil
}
