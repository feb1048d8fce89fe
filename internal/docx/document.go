// Package docx gives table-level access to the main part of a WordprocessingML
// package. It reads and writes only word/document.xml; every other part is
// carried through byte for byte.
package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/beevik/etree"
)

// MainPart is the package path of the main document part.
const MainPart = "word/document.xml"

var (
	ErrMainPartMissing = errors.New("docx: " + MainPart + " not found")
	ErrNoBody          = errors.New("docx: document has no body")
	ErrOutOfRange      = errors.New("docx: index out of range")
)

type part struct {
	name     string
	method   uint16
	modified time.Time
	data     []byte
}

// Document is an opened .docx package.
type Document struct {
	parts []part
	main  int
	xml   *etree.Document
	body  *etree.Element
}

// Open parses a .docx package held in memory.
func Open(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open package: %w", err)
	}

	doc := &Document{main: -1}
	for _, f := range zr.File {
		b, err := readPart(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		if f.Name == MainPart {
			doc.main = len(doc.parts)
		}
		doc.parts = append(doc.parts, part{
			name:     f.Name,
			method:   f.Method,
			modified: f.Modified,
			data:     b,
		})
	}
	if doc.main < 0 {
		return nil, ErrMainPartMissing
	}

	doc.xml = etree.NewDocument()
	if err := doc.xml.ReadFromBytes(doc.parts[doc.main].data); err != nil {
		return nil, fmt.Errorf("parse %s: %w", MainPart, err)
	}
	root := doc.xml.Root()
	if root == nil {
		return nil, ErrNoBody
	}
	doc.body = root.SelectElement("w:body")
	if doc.body == nil {
		return nil, ErrNoBody
	}

	return doc, nil
}

// OpenFile reads and parses a .docx file from disk.
func OpenFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return Open(data)
}

func readPart(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}

// Bytes serializes the package. Parts keep their original order and
// timestamps, so an unchanged tree always produces identical bytes.
func (d *Document) Bytes() ([]byte, error) {
	main, err := d.xml.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serialize %s: %w", MainPart, err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i, p := range d.parts {
		data := p.data
		if i == d.main {
			data = main
		}

		method := zip.Deflate
		if p.method == zip.Store {
			method = zip.Store
		}
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     p.name,
			Method:   method,
			Modified: p.modified,
		})
		if err != nil {
			return nil, fmt.Errorf("write %s: %w", p.name, err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("write %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close package: %w", err)
	}

	return buf.Bytes(), nil
}

// Tables returns the body-level tables in document order.
func (d *Document) Tables() []*Table {
	els := d.body.SelectElements("w:tbl")
	tables := make([]*Table, len(els))
	for i, el := range els {
		tables[i] = &Table{el: el}
	}
	return tables
}

// Table returns the body-level table at index i.
func (d *Document) Table(i int) (*Table, error) {
	tables := d.Tables()
	if i < 0 || i >= len(tables) {
		return nil, fmt.Errorf("table %d of %d: %w", i, len(tables), ErrOutOfRange)
	}
	return tables[i], nil
}

// FindCell returns the first cell in any body table for which match is true.
func (d *Document) FindCell(match func(*Cell) bool) *Cell {
	for _, t := range d.Tables() {
		for _, c := range t.Cells() {
			if match(c) {
				return c
			}
		}
	}
	return nil
}

// InsertAfter places els, in order, directly after ref in ref's parent.
func (d *Document) InsertAfter(ref *etree.Element, els ...*etree.Element) {
	parent := ref.Parent()
	if parent == nil {
		return
	}
	at := ref.Index() + 1
	for _, el := range els {
		parent.InsertChildAt(at, el)
		at++
	}
}

// Remove detaches el from the tree.
func (d *Document) Remove(el *etree.Element) {
	if parent := el.Parent(); parent != nil {
		parent.RemoveChild(el)
	}
}

// Text returns the text of every body paragraph and table, one block per line.
func (d *Document) Text() string {
	var buf bytes.Buffer
	for _, el := range d.body.ChildElements() {
		switch {
		case is(el, "p"):
			buf.WriteString(paragraphText(el))
			buf.WriteByte('\n')
		case is(el, "tbl"):
			buf.WriteString((&Table{el: el}).Text())
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}

// nextElement returns the element sibling following el, or nil.
func nextElement(el *etree.Element) *etree.Element {
	parent := el.Parent()
	if parent == nil {
		return nil
	}
	for _, tok := range parent.Child[el.Index()+1:] {
		if next, ok := tok.(*etree.Element); ok {
			return next
		}
	}
	return nil
}

// is reports whether el is the WordprocessingML element w:<tag>.
func is(el *etree.Element, tag string) bool {
	return el != nil && el.Space == "w" && el.Tag == tag
}
