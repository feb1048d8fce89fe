package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/GMettam/batch-affidavit-web/internal/gpc"
	"github.com/GMettam/batch-affidavit-web/internal/model"
	"github.com/GMettam/batch-affidavit-web/internal/pipeline"
	"github.com/GMettam/batch-affidavit-web/internal/worker"
)

var lodgementOnly bool

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract case details from General Procedure Claim text",
	Long: `Extract reads a General Procedure Claim from [file] (plain text or .docx)
or stdin and prints the case record an LLM provider extracts from it, with the
registry, lodgement date and law firm parsed from the text.

With --lodgement-only no provider is needed; only the parsed lodgement
details are printed.

Example:
  pdftotext claim.pdf - | affidavit extract --llm-provider anthropic
  affidavit extract claim.txt --lodgement-only`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().BoolVar(&lodgementOnly, "lodgement-only", false, "only parse registry, lodgement date and law firm (no LLM)")
}

type extractOutput struct {
	Record    *model.CaseRecord `json:"record,omitempty"`
	Lodgement model.Lodgement   `json:"lodgement"`
}

func runExtract(cmd *cobra.Command, args []string) error {
	var text string
	if len(args) == 1 {
		claim, err := worker.ReadClaimText(args[0])
		if err != nil {
			return fmt.Errorf("read claim: %w", err)
		}
		text = claim
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read claim: %w", err)
		}
		text = string(data)
	}
	if text == "" {
		return errors.New("no text provided")
	}

	out := extractOutput{Lodgement: gpc.Parse(text)}

	if !lodgementOnly {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		p, err := pipeline.New(cfg, logger)
		if err != nil {
			return err
		}
		if !p.CanExtract() {
			return errors.New("no LLM provider configured (set --llm-provider or use --lodgement-only)")
		}

		name := "stdin"
		if len(args) == 1 {
			name = args[0]
		}
		rec, err := p.Extract(cmd.Context(), name, text)
		if err != nil {
			return err
		}
		rec.GPCText = ""
		out.Record = rec
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
