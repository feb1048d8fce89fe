package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/GMettam/batch-affidavit-web/internal/affidavit"
	"github.com/GMettam/batch-affidavit-web/internal/docx"
	"github.com/GMettam/batch-affidavit-web/internal/forms"
	"github.com/GMettam/batch-affidavit-web/internal/llm"
	"github.com/GMettam/batch-affidavit-web/internal/model"
	"github.com/GMettam/batch-affidavit-web/internal/worker"
)

const claimText = `GENERAL PROCEDURE CLAIM
REGISTRY AT: Perth Magistrates Court 501 Hay Street PERTH WA 6000
Date lodged: 14/03/2025
Claimant's address for service: Smith Lawyers Level 2 10 St Georges Terrace PERTH WA 6000 Claimant ref: ABC-123 Claimant email: info@smith.example Claimant telephone: 08 9123 4567
Description of Claim
Unpaid invoices.`

const extractedReply = `{"registry":"Perth","caseNumber":"GCLM/1234/2025","claimant":"Acme Pty Ltd","defendants":[{"name":"John Smith","address":"1 Hay Street PERTH WA 6000"},{"name":"Jane Smith","address":"2 Hay Street PERTH WA 6000"}]}`

type replyProvider struct {
	reply string
}

func (r replyProvider) Name() string { return "reply" }

func (r replyProvider) IsAvailable(context.Context) bool { return true }

func (r replyProvider) Extract(context.Context, llm.ExtractRequest) (*llm.ExtractResponse, error) {
	return &llm.ExtractResponse{Raw: r.reply}, nil
}

func newTestPipeline(t *testing.T, provider llm.Provider) *Pipeline {
	t.Helper()
	gen := affidavit.NewGenerator(forms.AffidavitOfService(), affidavit.Options{}, nil)
	var extractor *llm.Extractor
	if provider != nil {
		extractor = llm.NewExtractor(provider, "")
	}
	return NewWithParts(gen, extractor, nil)
}

func documentText(t *testing.T, res *affidavit.Result) string {
	t.Helper()
	doc, err := docx.Open(res.Document)
	if err != nil {
		t.Fatalf("Failed to open generated document: %v", err)
	}
	return doc.Text()
}

func TestPipeline_ProcessClaim(t *testing.T) {
	p := newTestPipeline(t, replyProvider{reply: extractedReply})
	if !p.CanExtract() {
		t.Fatal("Expected extraction to be enabled")
	}

	rec, res, err := p.ProcessClaim(context.Background(), "claim.txt", claimText)
	if err != nil {
		t.Fatalf("ProcessClaim failed: %v", err)
	}
	if rec.GPCText != claimText {
		t.Error("Expected claim text to be kept on the record")
	}
	if res.Filename != "Affidavit_GCLM-1234-2025.docx" {
		t.Errorf("Unexpected filename: %s", res.Filename)
	}
	if !strings.Contains(documentText(t, res), "the First Defendant") {
		t.Error("Expected the first defendant to be served")
	}

	// Serving a later defendant goes through Generate with the extracted record.
	rec.DefendantName = "Jane Smith"
	res, err = p.Generate(context.Background(), *rec)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if res.Filename != "Affidavit_GCLM-1234-2025_Jane_Smith.docx" {
		t.Errorf("Unexpected filename: %s", res.Filename)
	}

	text := documentText(t, res)
	for _, want := range []string{
		"Perth Magistrates Court",
		"501 Hay Street",
		"GCLM/1234/2025",
		"Smith Lawyers, Level 2 10 St Georges Terrace PERTH WA 6000",
		"(08) 9123 4567",
		"ABC-123",
		"the Second Defendant",
		"lodged on 14/03/2025",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected document to contain %q", want)
		}
	}
}

func TestPipeline_GenerateWithoutClaimText(t *testing.T) {
	p := newTestPipeline(t, nil)
	if p.CanExtract() {
		t.Fatal("Expected extraction to be disabled")
	}

	rec := model.CaseRecord{
		Registry:   "Perth",
		CaseNumber: "GCLM/1/2025",
		Claimant:   "Acme Pty Ltd",
		Defendants: []model.Defendant{{Name: "John Smith"}},
	}
	res, err := p.Generate(context.Background(), rec)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !strings.Contains(documentText(t, res), "Perth") {
		t.Error("Expected registry from the record")
	}
	if p.Lodgement(&rec) != nil {
		t.Error("Expected no lodgement without claim text")
	}
}

func TestPipeline_Errors(t *testing.T) {
	p := newTestPipeline(t, nil)

	if _, err := p.Extract(context.Background(), "claim", "text"); !errors.Is(err, llm.ErrNoProvider) {
		t.Errorf("Expected ErrNoProvider, got %v", err)
	}

	var missing *affidavit.MissingFieldError
	_, err := p.Generate(context.Background(), model.CaseRecord{Claimant: "A", Defendants: []model.Defendant{{Name: "B"}}})
	if !errors.As(err, &missing) || missing.Field != "caseNumber" {
		t.Errorf("Expected missing caseNumber, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Generate(ctx, model.CaseRecord{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestNew(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false

	p, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if p.CanExtract() {
		t.Error("Expected extraction disabled without a provider")
	}

	cfg.LLM.Provider = "nope"
	if _, err := New(cfg, nil); err == nil {
		t.Error("Expected error for unknown provider")
	}

	cfg.LLM.Provider = ""
	cfg.Template.Path = filepath.Join(t.TempDir(), "missing.docx")
	if _, err := New(cfg, nil); err == nil {
		t.Error("Expected error for missing template")
	}
}

func TestWriteResult(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	res := &affidavit.Result{Document: []byte("PK"), Filename: "Affidavit_X.docx"}

	path, err := WriteResult(dir, res)
	if err != nil {
		t.Fatalf("WriteResult failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if string(data) != "PK" {
		t.Errorf("Unexpected content: %q", data)
	}
	if filepath.Base(path) != "Affidavit_X.docx" {
		t.Errorf("Unexpected path: %s", path)
	}
}

func TestOutputWriter_DistinctNames(t *testing.T) {
	dir := t.TempDir()
	w := NewOutputWriter(dir)

	var paths []string
	for _, content := range []string{"one", "two", "three"} {
		path, err := w.Write(&affidavit.Result{Document: []byte(content), Filename: "Affidavit_X.docx"})
		if err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		paths = append(paths, filepath.Base(path))
	}
	if _, err := w.Write(&affidavit.Result{Document: []byte("four"), Filename: "affidavit_x.DOCX"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	want := []string{"Affidavit_X.docx", "Affidavit_X_2.docx", "Affidavit_X_3.docx"}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("Expected %s, got %s", want[i], paths[i])
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 4 {
		t.Errorf("Expected 4 files on disk, got %d", len(entries))
	}
	if data, _ := os.ReadFile(filepath.Join(dir, "Affidavit_X.docx")); string(data) != "one" {
		t.Errorf("Expected first document to survive, got %q", data)
	}
}

func TestBatch_SharedCaseNumber(t *testing.T) {
	p := newTestPipeline(t, nil)
	items := []worker.Item{
		{Name: "first", Record: &model.CaseRecord{CaseNumber: "GCLM/1/2025", Claimant: "Acme Pty Ltd", Defendants: []model.Defendant{{Name: "X"}}}},
		{Name: "second", Record: &model.CaseRecord{CaseNumber: "GCLM/1/2025", Claimant: "Acme Pty Ltd", Defendants: []model.Defendant{{Name: "Y"}}}},
	}

	results := worker.NewBatchProcessor(p, 2, false, nil).Process(context.Background(), items)
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}

	dir := t.TempDir()
	w := NewOutputWriter(dir)
	written := 0
	for _, r := range results {
		if r.Error != nil {
			t.Fatalf("Item %s failed: %v", r.Name, r.Error)
		}
		for _, out := range r.Outputs {
			if _, err := w.Write(out); err != nil {
				t.Fatalf("Write failed: %v", err)
			}
			written++
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if written != 2 || len(entries) != written {
		t.Errorf("Expected 2 documents on disk, wrote %d and found %d", written, len(entries))
	}
	if _, err := os.Stat(filepath.Join(dir, "Affidavit_GCLM-1-2025_2.docx")); err != nil {
		t.Errorf("Expected suffixed second document: %v", err)
	}
}

func TestNewLimiter_ProviderOverrides(t *testing.T) {
	limiter := newLimiter(model.RateLimitingConfig{
		RequestsPerSecond: 100,
		BurstSize:         5,
		Providers: map[string]model.ProviderRate{
			"anthropic": {RequestsPerSecond: 0.01, BurstSize: 1},
		},
	})

	waits := func(key string) bool {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		return limiter.Wait(ctx, key) != nil
	}

	if waits("anthropic") {
		t.Fatal("Expected first anthropic call to pass")
	}
	if !waits("anthropic") {
		t.Error("Expected second anthropic call to be held by the override")
	}
	for i := 0; i < 3; i++ {
		if waits("openai") {
			t.Errorf("Expected openai call %d to use the default limit", i)
		}
	}
}
