package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/factsift/internal/app"
	"github.com/ppiankov/factsift/internal/i18n"
	"github.com/ppiankov/factsift/internal/model"
	"github.com/ppiankov/factsift/internal/pipeline"
	"github.com/ppiankov/factsift/internal/worker"
)

var (
	concurrency  int
	outputFile   string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Check multiple queries from a file in parallel",
	Long: `Batch checks many queries concurrently:
- Read queries from input file (one per line, # comments allowed)
- Check queries in parallel with configurable worker count
- Write one JSON object per query (JSON Lines), in input order

Example:
  factsift batch claims.txt
  factsift batch claims.txt --concurrency 8 --output results.jsonl
  factsift batch claims.txt --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.workers)")
	batchCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
}

// batchLine is one JSON Lines record
type batchLine struct {
	Query    string                `json:"query"`
	Response *model.CheckResponse  `json:"response,omitempty"`
	Error    *model.StatusResponse `json:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	workers := concurrency
	if workers <= 0 {
		workers = cfg.Concurrency.Workers
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  factsift Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	a, err := app.New(ctx, cfg, logger, Version)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer func() { _ = a.Close() }()

	processor := worker.NewBatchProcessor(a.Pipeline, workers)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	var out io.Writer = cmd.OutOrStdout()
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	success, failure, err := writeBatchResults(out, results, i18n.For(cfg.Pipeline.DisplayLanguage))
	if err != nil {
		return err
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d queries\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", success)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failure)
	if outputFile != "" {
		fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputFile)
	}
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// writeBatchResults writes one JSON line per result in input order
func writeBatchResults(w io.Writer, results []*worker.CheckResult, msgs i18n.Catalog) (success, failure int, err error) {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)

	for _, result := range results {
		line := batchLine{Query: result.Query, Response: result.Response}
		if result.Error != nil {
			failure++
			resp := model.ErrorResponse(pipeline.UserMessage(result.Error, msgs))
			line.Response = nil
			line.Error = &resp
		} else {
			success++
		}
		if err := enc.Encode(line); err != nil {
			return success, failure, fmt.Errorf("write result: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return success, failure, fmt.Errorf("write result: %w", err)
	}
	return success, failure, nil
}
