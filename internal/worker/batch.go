package worker

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/GMettam/batch-affidavit-web/internal/affidavit"
	"github.com/GMettam/batch-affidavit-web/internal/docx"
	"github.com/GMettam/batch-affidavit-web/internal/model"
)

// Source turns claims into affidavits.
type Source interface {
	// Extract builds a case record from raw claim text.
	Extract(ctx context.Context, name, text string) (*model.CaseRecord, error)
	// Generate fills the template for a case record.
	Generate(ctx context.Context, rec model.CaseRecord) (*affidavit.Result, error)
}

// Item is one batch input: either a structured record or raw claim text.
type Item struct {
	Name   string
	Record *model.CaseRecord
	Text   string
}

// GenerateJob produces the affidavits for one Item.
type GenerateJob struct {
	Item         Item
	Source       Source
	PerDefendant bool
}

// Execute runs the job. With PerDefendant set, one affidavit is generated
// per defendant, each naming that defendant in the service statement.
func (j *GenerateJob) Execute(ctx context.Context) Result {
	res := &GenerateResult{Name: j.Item.Name}

	rec := j.Item.Record
	if rec == nil {
		extracted, err := j.Source.Extract(ctx, j.Item.Name, j.Item.Text)
		if err != nil {
			res.Error = fmt.Errorf("extract: %w", err)
			return res
		}
		rec = extracted
	}

	records := []model.CaseRecord{*rec}
	if j.PerDefendant {
		records = PerDefendant(*rec)
	}

	for _, r := range records {
		out, err := j.Source.Generate(ctx, r)
		if err != nil {
			res.Error = fmt.Errorf("generate %s: %w", r.DefendantName, err)
			return res
		}
		res.Outputs = append(res.Outputs, out)
	}
	return res
}

// GenerateResult is the outcome of a GenerateJob.
type GenerateResult struct {
	Name    string
	Outputs []*affidavit.Result
	Error   error
}

// GetError returns the error from the job
func (r *GenerateResult) GetError() error {
	return r.Error
}

// PerDefendant splits rec into one record per defendant the form can hold.
// A record without defendants is returned unchanged so generation reports it.
func PerDefendant(rec model.CaseRecord) []model.CaseRecord {
	rec.Defendants = append([]model.Defendant(nil), rec.Defendants...)
	rec.Normalize()
	if len(rec.Defendants) == 0 {
		return []model.CaseRecord{rec}
	}

	n := min(len(rec.Defendants), affidavit.MaxDefendants)
	out := make([]model.CaseRecord, n)
	for i := range out {
		out[i] = rec.ForDefendant(i)
	}
	return out
}

// BatchProcessor generates affidavits for many inputs concurrently.
type BatchProcessor struct {
	source       Source
	concurrency  int
	perDefendant bool
	logger       *zap.Logger
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(source Source, concurrency int, perDefendant bool, logger *zap.Logger) *BatchProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchProcessor{
		source:       source,
		concurrency:  concurrency,
		perDefendant: perDefendant,
		logger:       logger,
	}
}

// Process runs every item and returns results in input order.
func (b *BatchProcessor) Process(ctx context.Context, items []Item) []*GenerateResult {
	if len(items) == 0 {
		return []*GenerateResult{}
	}

	pool := NewPoolWithContext(ctx, b.concurrency)
	pool.Start()

	cancelled := false
	for _, item := range items {
		if !pool.Submit(&GenerateJob{Item: item, Source: b.source, PerDefendant: b.perDefendant}) {
			b.logger.Warn("Batch cancelled before all items were queued", zap.String("item", item.Name))
			cancelled = true
			break
		}
	}

	// A cancelled batch stops its workers instead of draining the queue.
	var results []Result
	if cancelled {
		results = pool.Shutdown()
	} else {
		results = pool.Wait()
	}

	out := make([]*GenerateResult, len(results))
	for i, r := range results {
		out[i] = r.(*GenerateResult)
		if out[i].Error != nil {
			b.logger.Warn("Batch item failed", zap.String("item", out[i].Name), zap.Error(out[i].Error))
		} else {
			b.logger.Debug("Batch item done", zap.String("item", out[i].Name), zap.Int("documents", len(out[i].Outputs)))
		}
	}
	return out
}

// ProcessPath reads items from path and processes them.
func (b *BatchProcessor) ProcessPath(ctx context.Context, path string) ([]*GenerateResult, error) {
	items, err := ReadItems(path)
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}
	return b.Process(ctx, items), nil
}

// ReadItems loads batch input. A directory yields one item per *.txt or
// *.docx claim and per *.json case record; a file is either a JSON array of case
// records or JSON lines, one record per line.
func ReadItems(path string) ([]Item, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}
	if info.IsDir() {
		return readDir(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var records []model.CaseRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("parse records: %w", err)
		}
		items := make([]Item, len(records))
		for i := range records {
			items[i] = recordItem(&records[i], i+1)
		}
		return items, nil
	}

	return readJSONLines(data)
}

func readJSONLines(data []byte) ([]Item, error) {
	var items []Item
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		var rec model.CaseRecord
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		items = append(items, recordItem(&rec, line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan input: %w", err)
	}
	return items, nil
}

func readDir(dir string) ([]Item, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var items []Item
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))

		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".txt" || ext == ".docx" {
			text, err := ReadClaimText(path)
			if err != nil {
				return nil, err
			}
			items = append(items, Item{Name: name, Text: text})
			continue
		}
		if ext != ".json" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		var rec model.CaseRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
		items = append(items, Item{Name: name, Record: &rec})
	}
	return items, nil
}

// ReadClaimText returns the plain text of a claim file. A .docx claim is
// flattened to its paragraph and table text; anything else is read as is.
func ReadClaimText(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".docx") {
		doc, err := docx.OpenFile(path)
		if err != nil {
			return "", fmt.Errorf("open %s: %w", filepath.Base(path), err)
		}
		return doc.Text(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return string(data), nil
}

func recordItem(rec *model.CaseRecord, n int) Item {
	name := rec.CaseNumber
	if name == "" {
		name = fmt.Sprintf("record-%d", n)
	}
	return Item{Name: name, Record: rec}
}
