package docx

import (
	"strings"

	"github.com/beevik/etree"
)

// Cell is a w:tc element.
type Cell struct {
	el *etree.Element
}

// Element returns the underlying w:tc element.
func (c *Cell) Element() *etree.Element {
	return c.el
}

// Paragraphs returns the cell's direct w:p children.
func (c *Cell) Paragraphs() []*etree.Element {
	return c.el.SelectElements("w:p")
}

// Text returns the visible cell text with paragraphs joined by newlines.
func (c *Cell) Text() string {
	paras := c.Paragraphs()
	lines := make([]string, len(paras))
	for i, p := range paras {
		lines[i] = paragraphText(p)
	}
	return strings.Join(lines, "\n")
}

// SetText replaces the cell content with a single paragraph holding s.
// Line breaks in s become w:br. The first paragraph's properties and the
// first run's properties are kept so the cell keeps its formatting.
func (c *Cell) SetText(s string) {
	pPr, rPr := c.reset()
	c.el.AddChild(newParagraph(pPr, rPr, strings.Split(s, "\n")))
}

// SetLines replaces the cell content with one paragraph per line.
func (c *Cell) SetLines(lines []string) {
	pPr, rPr := c.reset()
	if len(lines) == 0 {
		lines = []string{""}
	}
	for _, line := range lines {
		c.el.AddChild(newParagraph(pPr, rPr, []string{line}))
	}
}

// Rewrite passes the cell text through fn and stores the result when it
// differs.
func (c *Cell) Rewrite(fn func(string) string) bool {
	text := c.Text()
	out := fn(text)
	if out == text {
		return false
	}
	c.SetText(out)
	return true
}

// reset removes all paragraphs and returns copies of the formatting to reuse.
func (c *Cell) reset() (pPr, rPr *etree.Element) {
	paras := c.Paragraphs()
	if len(paras) > 0 {
		if el := paras[0].SelectElement("w:pPr"); el != nil {
			pPr = el.Copy()
		}
		if run := paras[0].FindElement(".//w:r"); run != nil {
			if el := run.SelectElement("w:rPr"); el != nil {
				rPr = el.Copy()
			}
		}
	}
	for _, p := range paras {
		c.el.RemoveChild(p)
	}
	return pPr, rPr
}

func newParagraph(pPr, rPr *etree.Element, lines []string) *etree.Element {
	p := etree.NewElement("w:p")
	if pPr != nil {
		p.AddChild(pPr.Copy())
	}
	r := p.CreateElement("w:r")
	if rPr != nil {
		r.AddChild(rPr.Copy())
	}
	for i, line := range lines {
		if i > 0 {
			r.CreateElement("w:br")
		}
		t := r.CreateElement("w:t")
		if line != strings.TrimSpace(line) {
			t.CreateAttr("xml:space", "preserve")
		}
		t.SetText(line)
	}
	return p
}

func paragraphText(p *etree.Element) string {
	var b strings.Builder
	collectText(p, &b)
	return b.String()
}

func collectText(el *etree.Element, b *strings.Builder) {
	for _, child := range el.ChildElements() {
		if child.Space != "w" {
			continue
		}
		switch child.Tag {
		case "t":
			b.WriteString(child.Text())
		case "tab":
			b.WriteByte('\t')
		case "br", "cr":
			b.WriteByte('\n')
		case "pPr", "rPr", "delText", "instrText":
		default:
			collectText(child, b)
		}
	}
}
