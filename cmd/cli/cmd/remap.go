package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/resopt/internal/advisor"
	"github.com/resopt/internal/dex"
	"github.com/resopt/internal/formatter"
	"github.com/resopt/internal/remap"
	"github.com/resopt/internal/statistics"
	"github.com/resopt/internal/storage"
	"github.com/resopt/pkg/config"
	"github.com/resopt/pkg/model"
	"github.com/resopt/pkg/resid"
	"github.com/resopt/pkg/utils"
)

var (
	// Remap command flags
	inputFile     string
	tableFile     string
	outputDir     string
	jobUUID       string
	dryRun        bool
	maxWorkers    int
	reportView    string
	topN          int
	holders       []string
	roleOverrides map[string]string
	serveAfter    bool
	servePort     int
)

// remapCmd represents the remap command
var remapCmd = &cobra.Command{
	Use:   "remap",
	Short: "Remap the resource-ID arrays of a program dump",
	Long: `Remap rewrites the constant resource-ID arrays of every holder class
in a program dump so they agree with an old-to-new remap table.

The remap command processes a JSON program dump and generates:
  - The rewritten program dump
  - A pass report (JSON) with per-class counters
  - Optimization suggestions when the rewrite looks suspicious

Table entries map old ids to new ids; an id absent from the table
belongs to a deleted resource and is dropped from sequential arrays
or zeroed in positional ones.`,
	RunE: runRemap,
}

func init() {
	rootCmd.AddCommand(remapCmd)

	binName := BinName()
	remapCmd.Example = `  # Remap a dump and write results under ./output
  ` + binName + ` remap -i ./dump.json -t ./table.json

  # Preview without writing the rewritten dump
  ` + binName + ` remap -i ./dump.json -t ./table.json --dry-run

  # Treat an app-specific holder class as a resource holder
  ` + binName + ` remap -i ./dump.json -t ./table.json --holder "Lcom/app/Res;"

  # Remap and immediately view the report in a browser
  ` + binName + ` remap -i ./dump.json -t ./table.json --serve --port 8080`

	// Input/Output flags
	remapCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input program dump (required)")
	remapCmd.Flags().StringVarP(&tableFile, "table", "t", "", "Remap table JSON (required)")
	remapCmd.Flags().StringVarP(&outputDir, "output", "o", "./output", "Output directory for generated files")
	remapCmd.MarkFlagRequired("input")
	remapCmd.MarkFlagRequired("table")

	// Pass configuration flags
	remapCmd.Flags().StringVar(&jobUUID, "uuid", "", "Job UUID (auto-generated if empty)")
	remapCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute the report without writing the rewritten dump")
	remapCmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "Per-class worker pool size (0 = machine default)")
	remapCmd.Flags().StringVar(&reportView, "view", "summary", "Report view: summary, classes, diagnostics")
	remapCmd.Flags().IntVarP(&topN, "top", "n", 10, "Number of top classes to report")
	remapCmd.Flags().StringSliceVar(&holders, "holder", nil, "Customized holder class descriptor (repeatable)")
	remapCmd.Flags().StringToStringVar(&roleOverrides, "role", nil, "Role override, descriptor=role (sequential, positional, skip)")

	// Serve flags
	remapCmd.Flags().BoolVar(&serveAfter, "serve", false, "Start report server after remapping")
	remapCmd.Flags().IntVar(&servePort, "port", 8080, "Port for report server (used with --serve)")
}

func runRemap(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	if _, err := os.Stat(inputFile); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputFile)
	}

	uuid := jobUUID
	if uuid == "" {
		uuid = generateUUID()
	}

	roleFilter, err := remap.FilterFromConfig(&config.ResourcesConfig{
		CustomizedHolders: holders,
		RoleOverrides:     roleOverrides,
	})
	if err != nil {
		return err
	}

	store, err := storage.NewLocalStorage(outputDir)
	if err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	log.Info("=== Resource Remap CLI ===")
	log.Info("Input dump:  %s", inputFile)
	log.Info("Remap table: %s", tableFile)
	log.Info("Output dir:  %s", outputDir)
	log.Info("Job UUID:    %s", uuid)
	if dryRun {
		log.Info("Mode:        dry run")
	}
	log.Info("")

	prog, err := dex.LoadProgram(inputFile)
	if err != nil {
		return fmt.Errorf("failed to load program dump: %w", err)
	}

	tableData, err := os.ReadFile(tableFile)
	if err != nil {
		return fmt.Errorf("failed to read remap table: %w", err)
	}
	table, err := resid.ParseTable(tableData)
	if err != nil {
		return fmt.Errorf("failed to parse remap table: %w", err)
	}

	pass := remap.NewPass(&remap.Config{
		MaxWorkers: maxWorkers,
		DryRun:     dryRun,
		Filter:     roleFilter,
		Logger:     log,
	})

	log.Info("Starting remap pass...")
	ctx := context.Background()
	startTime := time.Now()
	report, err := pass.Run(ctx, prog, table)
	if err != nil {
		return fmt.Errorf("remap pass failed: %w", err)
	}
	passTime := time.Since(startTime)
	report.JobUUID = uuid

	log.Info("Remap pass completed in %s", passTime.Round(time.Millisecond))
	log.Info("")

	printReport(log, report)
	printSuggestions(log, report)

	outputKey := ""
	if !dryRun {
		outputKey = "outputs/" + uuid + ".json"
		if err := dex.SaveProgram(prog, filepath.Join(outputDir, outputKey)); err != nil {
			return fmt.Errorf("failed to write rewritten dump: %w", err)
		}
	}
	if err := saveReport(ctx, store, report, uuid); err != nil {
		return err
	}

	log.Info("")
	log.Info("=== Remap Complete ===")
	if outputKey != "" {
		log.Info("Rewritten dump: %s", store.GetURL(outputKey))
	}
	log.Info("Pass report:    %s", store.GetURL(storage.ReportKeyFor(uuid)))

	if serveAfter {
		log.Info("")
		log.Info("Starting report server...")
		return startServeMode(outputDir, servePort, log)
	}

	return nil
}

func generateUUID() string {
	return fmt.Sprintf("local-%d", os.Getpid())
}

// printReport renders the report through the requested formatter view
// and appends the top classes ranking.
func printReport(log utils.Logger, report *model.PassReport) {
	registry := formatter.NewRegistry()
	registry.Format(reportView, report, log)

	top := statistics.NewTopClassesCalculator(statistics.WithTopN(topN)).Calculate(report)
	if len(top.TopClasses) == 0 {
		return
	}

	log.Info("")
	log.Info("=== Top Classes by Deletion ===")
	for i, entry := range top.TopClasses {
		log.Info("  %2d. %5.1f%%  %s (%s, kept %d, deleted %d)",
			i+1, entry.DeletionRatio*100, entry.ClassName, entry.Role,
			entry.ElementsKept, entry.ElementsDeleted)
	}
}

func printSuggestions(log utils.Logger, report *model.PassReport) {
	top := statistics.NewTopClassesCalculator(statistics.WithTopN(topN)).Calculate(report)
	suggestions := advisor.NewAdvisor().Advise(&advisor.RuleContext{
		Report:     report,
		TopClasses: top,
	})
	if len(suggestions) == 0 {
		return
	}

	log.Info("")
	log.Info("=== Suggestions ===")
	for _, sug := range suggestions {
		log.Info("  [%s] %s", sug.Severity, sug.Suggestion)
	}
}

func saveReport(ctx context.Context, store storage.Storage, report *model.PassReport, uuid string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := store.Upload(ctx, storage.ReportKeyFor(uuid), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
