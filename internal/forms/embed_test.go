package forms

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Embedded(t *testing.T) {
	data, err := Load("")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(data) < 4 || string(data[:2]) != "PK" {
		t.Fatal("Expected embedded template to be a zip package")
	}

	data[0] = 'X'
	if AffidavitOfService()[0] != 'P' {
		t.Error("Expected callers to receive a copy")
	}
}

func TestLoad_FromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.docx")
	if err := os.WriteFile(path, []byte("custom"), 0o644); err != nil {
		t.Fatalf("Failed to write template: %v", err)
	}

	data, err := Load(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(data) != "custom" {
		t.Errorf("Expected on-disk template, got %q", data)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.docx")); err == nil {
		t.Error("Expected error for missing template")
	}
}
