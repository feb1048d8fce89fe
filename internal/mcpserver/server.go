// Package mcpserver exposes affidavit generation and claim extraction as
// Model Context Protocol tools.
package mcpserver

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/GMettam/batch-affidavit-web/internal/affidavit"
	"github.com/GMettam/batch-affidavit-web/internal/model"
	"github.com/GMettam/batch-affidavit-web/internal/pipeline"
)

// Pipeline is the part of pipeline.Pipeline the tools use.
type Pipeline interface {
	CanExtract() bool
	Extract(ctx context.Context, name, text string) (*model.CaseRecord, error)
	Generate(ctx context.Context, rec model.CaseRecord) (*affidavit.Result, error)
}

// NewServer creates an MCP server with the affidavit tools registered.
func NewServer(version string, p Pipeline) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "affidavit",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_affidavit",
		Description: "Fill a Form 11 Affidavit of Service for a case. Writes the .docx to output_dir when given, otherwise returns it base64-encoded.",
		Annotations: &mcp.ToolAnnotations{
			IdempotentHint:  true,
			DestructiveHint: boolPtr(false),
			OpenWorldHint:   boolPtr(false),
		},
	}, handleGenerate(p))

	if p.CanExtract() {
		mcp.AddTool(server, &mcp.Tool{
			Name:        "extract_case",
			Description: "Extract registry, case number, claimant and defendants from the text of a General Procedure Claim.",
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint: true,
			},
		}, handleExtract(p))
	}

	return server
}

// Run serves the tools over stdio until ctx is done or the client disconnects.
func Run(ctx context.Context, version string, p Pipeline) error {
	return NewServer(version, p).Run(ctx, &mcp.StdioTransport{})
}

func boolPtr(b bool) *bool {
	return &b
}

// DefendantInput is one defendant.
type DefendantInput struct {
	Name    string `json:"name"              jsonschema:"defendant's full name"`
	Address string `json:"address,omitempty" jsonschema:"defendant's address"`
}

// GenerateInput is the input for the generate_affidavit tool.
type GenerateInput struct {
	Registry        string           `json:"registry,omitempty"         jsonschema:"court registry, e.g. Perth"`
	CaseNumber      string           `json:"case_number"                jsonschema:"case number, e.g. GCLM/1234/2025"`
	Claimant        string           `json:"claimant"                   jsonschema:"claimant's full name"`
	ClaimantAddress string           `json:"claimant_address,omitempty" jsonschema:"claimant's address"`
	Defendants      []DefendantInput `json:"defendants"                 jsonschema:"defendants in the order listed on the claim (at most 6 are printed)"`
	DefendantName   string           `json:"defendant_name,omitempty"   jsonschema:"defendant named in the service statement (default: the first)"`
	ClaimText       string           `json:"claim_text,omitempty"       jsonschema:"claim text to read the registry and lodgement details from"`
	OutputDir       string           `json:"output_dir,omitempty"       jsonschema:"directory to write the .docx to"`
}

// GenerateOutput is the output for the generate_affidavit tool.
type GenerateOutput struct {
	Filename   string `json:"filename"       jsonschema:"suggested file name"`
	Path       string `json:"path,omitempty" jsonschema:"path written when output_dir was given"`
	Data       string `json:"data,omitempty" jsonschema:"base64 document when output_dir was not given"`
	Defendants int    `json:"defendants"     jsonschema:"defendant sections written"`
	Dropped    int    `json:"dropped"        jsonschema:"defendants beyond the form's capacity"`
}

func (in GenerateInput) record() model.CaseRecord {
	rec := model.CaseRecord{
		Registry:        in.Registry,
		CaseNumber:      in.CaseNumber,
		Claimant:        in.Claimant,
		ClaimantAddress: in.ClaimantAddress,
		DefendantName:   in.DefendantName,
		GPCText:         in.ClaimText,
	}
	for _, d := range in.Defendants {
		rec.Defendants = append(rec.Defendants, model.Defendant{Name: d.Name, Address: d.Address})
	}
	return rec
}

func handleGenerate(p Pipeline) mcp.ToolHandlerFor[GenerateInput, GenerateOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in GenerateInput) (*mcp.CallToolResult, GenerateOutput, error) {
		res, err := p.Generate(ctx, in.record())
		if err != nil {
			var missing *affidavit.MissingFieldError
			if errors.As(err, &missing) {
				return nil, GenerateOutput{}, missing
			}
			return nil, GenerateOutput{}, fmt.Errorf("generating affidavit: %w", err)
		}

		out := GenerateOutput{
			Filename:   res.Filename,
			Defendants: res.Defendants,
			Dropped:    res.Dropped,
		}
		if in.OutputDir != "" {
			path, err := pipeline.WriteResult(in.OutputDir, res)
			if err != nil {
				return nil, GenerateOutput{}, err
			}
			out.Path = path
		} else {
			out.Data = base64.StdEncoding.EncodeToString(res.Document)
		}
		return nil, out, nil
	}
}

// ExtractInput is the input for the extract_case tool.
type ExtractInput struct {
	Text string `json:"text" jsonschema:"plain text of the General Procedure Claim"`
}

// ExtractOutput is the output for the extract_case tool.
type ExtractOutput struct {
	Registry        string           `json:"registry,omitempty"         jsonschema:"court registry"`
	CaseNumber      string           `json:"case_number"                jsonschema:"case number"`
	Claimant        string           `json:"claimant"                   jsonschema:"claimant's full name"`
	ClaimantAddress string           `json:"claimant_address,omitempty" jsonschema:"claimant's address"`
	Defendants      []DefendantInput `json:"defendants"                 jsonschema:"defendants in order"`
}

func handleExtract(p Pipeline) mcp.ToolHandlerFor[ExtractInput, ExtractOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in ExtractInput) (*mcp.CallToolResult, ExtractOutput, error) {
		if in.Text == "" {
			return nil, ExtractOutput{}, errors.New("no text provided")
		}
		rec, err := p.Extract(ctx, "claim", in.Text)
		if err != nil {
			return nil, ExtractOutput{}, fmt.Errorf("extracting case: %w", err)
		}

		out := ExtractOutput{
			Registry:        rec.Registry,
			CaseNumber:      rec.CaseNumber,
			Claimant:        rec.Claimant,
			ClaimantAddress: rec.ClaimantAddress,
			Defendants:      make([]DefendantInput, 0, len(rec.Defendants)),
		}
		for _, d := range rec.Defendants {
			out.Defendants = append(out.Defendants, DefendantInput{Name: d.Name, Address: d.Address})
		}
		return nil, out, nil
	}
}
