package model

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCaseRecord_UnmarshalMixedDefendants(t *testing.T) {
	input := `{
		"caseNumber": "GCLM/1234/2025",
		"claimant": "Acme Pty Ltd",
		"defendants": ["John Smith", {"name": "Jane Doe", "address": "1 Hay Street PERTH WA 6000"}]
	}`

	var rec CaseRecord
	if err := json.Unmarshal([]byte(input), &rec); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	want := []Defendant{
		{Name: "John Smith"},
		{Name: "Jane Doe", Address: "1 Hay Street PERTH WA 6000"},
	}
	if diff := cmp.Diff(want, rec.Defendants); diff != "" {
		t.Errorf("defendants mismatch (-want +got):\n%s", diff)
	}
}

func TestCaseRecord_NormalizeLegacyFields(t *testing.T) {
	rec := CaseRecord{
		CaseNumber:       "GCLM/1/2025",
		Claimant:         "Acme",
		AllDefendants:    []string{" John Smith ", "", "Jane Doe"},
		DefendantName:    "Jane Doe",
		DefendantAddress: "2 Hay Street",
	}
	rec.Normalize()

	want := []Defendant{
		{Name: "John Smith"},
		{Name: "Jane Doe", Address: "2 Hay Street"},
	}
	if diff := cmp.Diff(want, rec.Defendants); diff != "" {
		t.Errorf("defendants mismatch (-want +got):\n%s", diff)
	}
	if got := rec.ServedIndex(); got != 1 {
		t.Errorf("expected served index 1, got %d", got)
	}
}

func TestCaseRecord_NormalizeSingleDefendantAddress(t *testing.T) {
	rec := CaseRecord{
		Defendants:       []Defendant{{Name: "John Smith"}},
		DefendantAddress: "3 Hay Street",
	}
	rec.Normalize()

	if rec.Defendants[0].Address != "3 Hay Street" {
		t.Errorf("expected address to be applied, got %q", rec.Defendants[0].Address)
	}
}

func TestCaseRecord_NormalizeServedDefendantAddress(t *testing.T) {
	rec := CaseRecord{
		AllDefendants:    []string{"A", "B"},
		DefendantAddress: "1 X St",
	}
	rec.Normalize()

	want := []Defendant{{Name: "A", Address: "1 X St"}, {Name: "B"}}
	if diff := cmp.Diff(want, rec.Defendants); diff != "" {
		t.Errorf("defendants mismatch (-want +got):\n%s", diff)
	}

	second := rec.ForDefendant(1)
	second.Normalize()
	if second.Defendants[1].Address != "" {
		t.Errorf("expected the address to stay with the first defendant, got %q", second.Defendants[1].Address)
	}

	rec.Normalize()
	if diff := cmp.Diff(want, rec.Defendants); diff != "" {
		t.Errorf("second Normalize changed defendants (-want +got):\n%s", diff)
	}
}

func TestCaseRecord_ServedIndex(t *testing.T) {
	tests := []struct {
		name   string
		served string
		want   int
	}{
		{"default first", "", 0},
		{"exact", "B", 1},
		{"case insensitive", "c", 2},
		{"unknown", "Z", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := CaseRecord{
				Defendants:    []Defendant{{Name: "A"}, {Name: "B"}, {Name: "C"}},
				DefendantName: tt.served,
			}
			if got := rec.ServedIndex(); got != tt.want {
				t.Errorf("ServedIndex() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCaseRecord_ForDefendant(t *testing.T) {
	rec := CaseRecord{Defendants: []Defendant{{Name: "A"}, {Name: "B"}}}
	out := rec.ForDefendant(1)

	if out.DefendantName != "B" {
		t.Errorf("expected DefendantName B, got %q", out.DefendantName)
	}
	out.Defendants[0].Name = "changed"
	if rec.Defendants[0].Name != "A" {
		t.Error("ForDefendant must not share the defendants slice")
	}
}
