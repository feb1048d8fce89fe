package cli

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GMettam/batch-affidavit-web/internal/model"
	"github.com/GMettam/batch-affidavit-web/internal/pipeline"
)

var (
	generateInput  string
	generateOutDir string
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one affidavit from a JSON case record",
	Long: `Generate reads a JSON case record from stdin (or --input) and writes a
JSON envelope to stdout:

  {"success": true, "data": "<base64 .docx>", "filename": "..."}
  {"success": false, "error": "..."}

The exit status is non-zero on failure. With --output-dir the document is
written to disk and the envelope carries only the filename.

Example:
  echo '{"caseNumber":"GCLM/1234/2025","claimant":"Acme Pty Ltd","defendants":[{"name":"John Smith"}]}' | affidavit generate
  affidavit generate --input case.json --output-dir ./affidavits`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&generateInput, "input", "i", "", "read the case record from this file instead of stdin")
	generateCmd.Flags().StringVar(&generateOutDir, "output-dir", "", "write the .docx here instead of returning it base64-encoded")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, logger, err := setup()
	if err != nil {
		return writeEnvelope(out, model.Envelope{Error: err.Error()})
	}
	defer func() { _ = logger.Sync() }()

	env, err := generateEnvelope(cmd, cfg, logger)
	if err != nil {
		logger.Error("Generate failed", zap.Error(err))
		return writeEnvelope(out, model.Envelope{Error: err.Error()})
	}
	return writeEnvelope(out, env)
}

func generateEnvelope(cmd *cobra.Command, cfg *model.Config, logger *zap.Logger) (model.Envelope, error) {
	var in io.Reader = cmd.InOrStdin()
	if generateInput != "" {
		f, err := os.Open(generateInput)
		if err != nil {
			return model.Envelope{}, fmt.Errorf("open input: %w", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	var rec model.CaseRecord
	if err := json.NewDecoder(in).Decode(&rec); err != nil {
		return model.Envelope{}, fmt.Errorf("invalid JSON input: %w", err)
	}

	p, err := pipeline.New(cfg, logger)
	if err != nil {
		return model.Envelope{}, err
	}
	res, err := p.Generate(cmd.Context(), rec)
	if err != nil {
		return model.Envelope{}, err
	}

	env := model.Envelope{Success: true, Filename: res.Filename}
	if generateOutDir != "" {
		path, err := pipeline.WriteResult(generateOutDir, res)
		if err != nil {
			return model.Envelope{}, err
		}
		logger.Info("Wrote affidavit", zap.String("path", path))
		return env, nil
	}
	env.Data = base64.StdEncoding.EncodeToString(res.Document)
	return env, nil
}

// writeEnvelope prints env as one JSON line. A failed envelope yields
// ErrReported so the process exits non-zero.
func writeEnvelope(w io.Writer, env model.Envelope) error {
	if err := json.NewEncoder(w).Encode(env); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if !env.Success {
		return ErrReported
	}
	return nil
}
