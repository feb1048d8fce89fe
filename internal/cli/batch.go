package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/GMettam/batch-affidavit-web/internal/pipeline"
	"github.com/GMettam/batch-affidavit-web/internal/worker"
)

var (
	batchTimeout time.Duration
	perDefendant bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <input>",
	Short: "Generate affidavits for many cases in parallel",
	Long: `Batch generates affidavits for every case in <input>:
- a JSON array of case records
- a JSON-lines file, one case record per line
- a directory of *.json case records and *.txt or *.docx claims
  (claims need an LLM provider to extract the case details)

Example:
  affidavit batch cases.jsonl
  affidavit batch ./claims --llm-provider anthropic --per-defendant
  affidavit batch cases.json --concurrency 8 --output-dir ./out`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().Int("concurrency", 4, "number of concurrent workers")
	batchCmd.Flags().String("output-dir", "./affidavits", "output directory for documents")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&perDefendant, "per-defendant", false, "write one affidavit per defendant")

	_ = viper.BindPFlag("concurrency.workers", batchCmd.Flags().Lookup("concurrency"))
	_ = viper.BindPFlag("output.dir", batchCmd.Flags().Lookup("output-dir"))
}

// summaryStyles holds lipgloss styles for the batch summary.
type summaryStyles struct {
	heading lipgloss.Style
	pass    lipgloss.Style
	fail    lipgloss.Style
	dim     lipgloss.Style
}

// batchStyles returns a TTY-aware style set.
func batchStyles(isTTY bool) summaryStyles {
	if !isTTY {
		return summaryStyles{}
	}
	return summaryStyles{
		heading: lipgloss.NewStyle().Bold(true),
		pass:    lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "10", Dark: "10"}),
		fail:    lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "9", Dark: "9"}),
		dim:     lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "8", Dark: "7"}),
	}
}

func isTerminal(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// batchSummary counts what a batch produced.
type batchSummary struct {
	Cases     int
	Succeeded int
	Failed    int
	Documents int
	OutputDir string
	Took      time.Duration
}

func runBatch(cmd *cobra.Command, args []string) error {
	input := args[0]

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	p, err := pipeline.New(cfg, logger)
	if err != nil {
		return err
	}

	items, err := worker.ReadItems(input)
	if err != nil {
		return err
	}

	logger.Info("Batch started",
		zap.String("input", input),
		zap.Int("cases", len(items)),
		zap.Int("workers", cfg.Concurrency.Workers),
		zap.String("output_dir", cfg.Output.Dir),
		zap.Bool("per_defendant", perDefendant),
	)

	start := time.Now()
	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers, perDefendant, logger)
	results := processor.Process(ctx, items)

	styles := batchStyles(isTerminal(os.Stderr))
	stderr := cmd.ErrOrStderr()
	summary := batchSummary{Cases: len(items), OutputDir: cfg.Output.Dir}
	writer := pipeline.NewOutputWriter(cfg.Output.Dir)

	for _, result := range results {
		if result.Error != nil {
			summary.Failed++
			fmt.Fprintf(stderr, "%s %s: %v\n", styles.fail.Render("✗"), result.Name, result.Error)
			continue
		}

		written := 0
		for _, out := range result.Outputs {
			path, err := writer.Write(out)
			if err != nil {
				fmt.Fprintf(stderr, "%s %s: %v\n", styles.fail.Render("✗"), result.Name, err)
				continue
			}
			written++
			fmt.Fprintf(stderr, "%s %s %s\n", styles.pass.Render("✓"), result.Name, styles.dim.Render(path))
		}
		summary.Documents += written
		if written == len(result.Outputs) {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	// Items the pool never ran (timeout or cancellation) count as failures.
	summary.Failed += len(items) - len(results)
	summary.Took = time.Since(start)

	printSummary(stderr, styles, summary)

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d cases failed", summary.Failed, summary.Cases)
	}
	return nil
}

func printSummary(w io.Writer, styles summaryStyles, s batchSummary) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, styles.heading.Render("Batch Complete"))
	fmt.Fprintf(w, "  Cases:      %d\n", s.Cases)
	fmt.Fprintf(w, "  Succeeded:  %s\n", styles.pass.Render(fmt.Sprint(s.Succeeded)))
	if s.Failed > 0 {
		fmt.Fprintf(w, "  Failed:     %s\n", styles.fail.Render(fmt.Sprint(s.Failed)))
	} else {
		fmt.Fprintf(w, "  Failed:     %d\n", s.Failed)
	}
	fmt.Fprintf(w, "  Documents:  %d\n", s.Documents)
	fmt.Fprintf(w, "  Output:     %s\n", s.OutputDir)
	fmt.Fprintf(w, "  Took:       %s\n", s.Took.Round(time.Millisecond))
}
