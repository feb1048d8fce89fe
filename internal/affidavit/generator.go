// Package affidavit fills the Form 11 Affidavit of Service template from a
// case record.
package affidavit

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/GMettam/batch-affidavit-web/internal/docx"
	"github.com/GMettam/batch-affidavit-web/internal/model"
)

// DefaultProcessName is written into the service statement when neither the
// record nor the options name the process served.
const DefaultProcessName = "General Procedure Claim"

// Fixed table positions in Form 11.
const (
	headerTable    = 0
	claimantTable  = 1
	defendantTable = 2
)

// ErrUnknownDefendant is returned when the served defendant is not one of the
// defendants written to the form.
var ErrUnknownDefendant = errors.New("defendant not found in defendants list")

// RenderError wraps a failure to read, fill or serialize the template.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return "render template: " + e.Err.Error()
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Options control formatting of the filled form.
type Options struct {
	FormatNames  bool   // "Given SURNAME" defendants, upper-case claimant
	PrefillPlace bool   // [Place] <- served defendant's formatted address
	ProcessName  string // [Name of process]; DefaultProcessName when empty
}

// OptionsFromConfig maps the template config section onto Options.
func OptionsFromConfig(cfg model.TemplateConfig) Options {
	return Options{
		FormatNames:  cfg.FormatNames,
		PrefillPlace: cfg.PrefillPlace,
		ProcessName:  cfg.ProcessName,
	}
}

// Result is one generated affidavit.
type Result struct {
	Document   []byte
	Filename   string
	Defendants int // defendant sections written
	Dropped    int // defendants beyond MaxDefendants
}

// Generator fills a template. It holds no per-document state and is safe
// for concurrent use.
type Generator struct {
	template []byte
	opts     Options
	logger   *zap.Logger
}

// NewGenerator creates a generator for the given template bytes.
// A nil logger disables logging.
func NewGenerator(template []byte, opts Options, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ProcessName == "" {
		opts.ProcessName = DefaultProcessName
	}
	return &Generator{
		template: template,
		opts:     opts,
		logger:   logger,
	}
}

// Generate fills the template for rec. lodgement may be nil.
func (g *Generator) Generate(rec model.CaseRecord, lodgement *model.Lodgement) (*Result, error) {
	rec.Defendants = append([]model.Defendant(nil), rec.Defendants...)
	rec.Normalize()
	if len(rec.Defendants) == 0 {
		return nil, &MissingFieldError{Field: "defendants"}
	}
	if lodgement == nil {
		lodgement = &model.Lodgement{}
	}

	served := rec.ServedIndex()
	if served < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDefendant, rec.DefendantName)
	}
	if served >= MaxDefendants {
		return nil, fmt.Errorf("%w: %q is defendant %d, the form holds %d",
			ErrUnknownDefendant, rec.Defendants[served].Name, served+1, MaxDefendants)
	}

	defendants := rec.Defendants
	dropped := 0
	if len(defendants) > MaxDefendants {
		dropped = len(defendants) - MaxDefendants
		g.logger.Warn("Too many defendants, extras dropped",
			zap.String("case", rec.CaseNumber),
			zap.Int("given", len(defendants)),
			zap.Int("max", MaxDefendants))
		defendants = defendants[:MaxDefendants]
	}

	doc, err := docx.Open(g.template)
	if err != nil {
		return nil, &RenderError{Err: err}
	}

	if err := g.fillHeader(doc, &rec, lodgement); err != nil {
		return nil, &RenderError{Err: fmt.Errorf("header: %w", err)}
	}
	if err := g.fillClaimant(doc, &rec); err != nil {
		return nil, &RenderError{Err: fmt.Errorf("claimant: %w", err)}
	}
	if err := g.fillDefendants(doc, defendants); err != nil {
		return nil, &RenderError{Err: fmt.Errorf("defendants: %w", err)}
	}
	if err := g.fillServiceStatement(doc, &rec, defendants[served], served, lodgement.DateLodged); err != nil {
		return nil, &RenderError{Err: fmt.Errorf("service statement: %w", err)}
	}
	if err := fillLodgement(doc, lodgement.LawFirm); err != nil {
		return nil, &RenderError{Err: fmt.Errorf("lodgement: %w", err)}
	}

	out, err := doc.Bytes()
	if err != nil {
		return nil, &RenderError{Err: err}
	}

	g.logger.Debug("Generated affidavit",
		zap.String("case", rec.CaseNumber),
		zap.Int("defendants", len(defendants)),
		zap.String("served", defendants[served].Name),
		zap.Int("bytes", len(out)))

	return &Result{
		Document:   out,
		Filename:   Filename(&rec),
		Defendants: len(defendants),
		Dropped:    dropped,
	}, nil
}

func (g *Generator) fillHeader(doc *docx.Document, rec *model.CaseRecord, lodgement *model.Lodgement) error {
	table, err := doc.Table(headerTable)
	if err != nil {
		return err
	}

	lines := lodgement.Registry.Lines()
	if len(lines) == 0 && strings.TrimSpace(rec.Registry) != "" {
		for _, l := range strings.Split(rec.Registry, "\n") {
			if l = strings.TrimSpace(l); l != "" {
				lines = append(lines, l)
			}
		}
	}
	registry, err := table.Cell(1, 0)
	if err != nil {
		return err
	}
	registry.SetLines(lines)

	caseNumber, err := table.Cell(1, 4)
	if err != nil {
		return err
	}
	caseNumber.SetText(strings.TrimSpace(rec.CaseNumber))
	return nil
}

func (g *Generator) fillClaimant(doc *docx.Document, rec *model.CaseRecord) error {
	table, err := doc.Table(claimantTable)
	if err != nil {
		return err
	}

	name := strings.TrimSpace(rec.Claimant)
	if g.opts.FormatNames {
		name = strings.ToUpper(name)
	}
	cell, err := table.Cell(0, 1)
	if err != nil {
		return err
	}
	cell.SetText(name)

	// Older templates have no claimant address row.
	if addr, err := table.Cell(1, 1); err == nil {
		addr.SetText(strings.TrimSpace(rec.ClaimantAddress))
	}
	return nil
}

// fillDefendants clones the first defendant section once per extra defendant,
// fills every section and removes template sections left unfilled.
func (g *Generator) fillDefendants(doc *docx.Document, defendants []model.Defendant) error {
	first, err := doc.Table(defendantTable)
	if err != nil {
		return err
	}

	spacer := first.Spacer()
	anchor := first.Element()
	if spacer != nil {
		anchor = spacer
	}

	sections := []*docx.Table{first}
	for i := 1; i < len(defendants); i++ {
		clone := first.Clone()
		if spacer != nil {
			gap := spacer.Copy()
			doc.InsertAfter(anchor, clone.Element(), gap)
			anchor = gap
		} else {
			doc.InsertAfter(anchor, clone.Element())
			anchor = clone.Element()
		}
		sections = append(sections, clone)
	}

	for i, t := range sections {
		if err := g.fillDefendant(t, i, defendants[i]); err != nil {
			return fmt.Errorf("%s: %w", DefendantLabel(i), err)
		}
	}

	for _, t := range doc.Tables() {
		if !isDefendantPlaceholder(t) {
			continue
		}
		if s := t.Spacer(); s != nil {
			doc.Remove(s)
		}
		doc.Remove(t.Element())
	}
	return nil
}

func (g *Generator) fillDefendant(t *docx.Table, i int, d model.Defendant) error {
	label, err := t.Cell(0, 0)
	if err != nil {
		return err
	}
	label.SetText(DefendantLabel(i))

	name, err := t.Cell(0, 1)
	if err != nil {
		return err
	}
	if g.opts.FormatNames {
		name.SetText(FormatPersonName(d.Name))
	} else {
		name.SetText(d.Name)
	}

	if addr, err := t.Cell(1, 1); err == nil {
		addr.SetText(d.Address)
	}
	return nil
}

// isDefendantPlaceholder reports whether t is an unfilled defendant section.
func isDefendantPlaceholder(t *docx.Table) bool {
	label, err := t.Cell(0, 0)
	if err != nil || !strings.HasSuffix(strings.TrimSpace(label.Text()), "Defendant") {
		return false
	}
	value, err := t.Cell(0, 1)
	return err == nil && strings.Contains(value.Text(), "[Defendant")
}

func (g *Generator) fillServiceStatement(doc *docx.Document, rec *model.CaseRecord, served model.Defendant, index int, dateLodged string) error {
	cell := doc.FindCell(func(c *docx.Cell) bool {
		return strings.Contains(c.Text(), "duly serve")
	})
	if cell == nil {
		return errors.New("no cell contains the service statement")
	}

	var svc model.ServiceDetails
	if rec.Service != nil {
		svc = *rec.Service
	}
	if svc.Process == "" {
		svc.Process = g.opts.ProcessName
	}
	if svc.Place == "" && g.opts.PrefillPlace {
		svc.Place = FormatAddress(served.Address)
	}

	name := served.Name
	if g.opts.FormatNames {
		name = FormatPersonName(name)
	}

	r := strings.NewReplacer(
		"[Name]", name,
		"[Defendant]", DefendantLabel(index),
		"[Date]", svc.Date,
		"[time am/pm]", svc.Time,
		"[Place]", svc.Place,
		"[Name of process]", svc.Process,
		"[date]", dateLodged,
	)
	cell.Rewrite(r.Replace)
	return nil
}

// fillLodgement writes the lodging party into the last table. Unknown values
// are left blank.
func fillLodgement(doc *docx.Document, firm model.LawFirm) error {
	tables := doc.Tables()
	table := tables[len(tables)-1]
	if !table.Contains("[Lodged by]") && !table.Contains("[Address for service]") {
		return nil
	}

	set := func(r, c int, value string) error {
		cell, err := table.Cell(r, c)
		if err != nil {
			return err
		}
		cell.SetText(value)
		return nil
	}

	if err := set(0, 1, firm.LodgedBy); err != nil {
		return err
	}
	if err := set(1, 1, firm.AddressForService()); err != nil {
		return err
	}
	row, err := table.Row(2)
	if err != nil || len(row) < 7 {
		return nil
	}
	row[2].SetText(firm.Telephone)
	row[4].SetText(firm.Email)
	row[6].SetText(firm.Reference)
	return nil
}
