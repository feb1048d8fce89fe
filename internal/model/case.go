package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// CaseRecord is the case data an affidavit is filled from.
// Field names match the JSON produced by the claim extraction step and the
// upload front-end, including the legacy single-defendant fields.
type CaseRecord struct {
	Registry        string      `json:"registry,omitempty"`
	CaseNumber      string      `json:"caseNumber"`
	Claimant        string      `json:"claimant"`
	ClaimantAddress string      `json:"claimantAddress,omitempty"`
	Defendants      []Defendant `json:"defendants"`

	// Legacy inputs folded into Defendants by Normalize.
	AllDefendants    []string `json:"allDefendants,omitempty"`
	DefendantName    string   `json:"defendantName,omitempty"`    // Defendant named in the service statement
	DefendantAddress string   `json:"defendantAddress,omitempty"` // Address of DefendantName when not given per defendant

	Service *ServiceDetails `json:"service,omitempty"`

	// GPCText is the raw claim text; registry, lodgement date and law firm
	// details are parsed from it when present.
	GPCText string `json:"gpcText,omitempty"`
}

// Defendant is one named party the claim is made against.
type Defendant struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

// UnmarshalJSON accepts either {"name": ..., "address": ...} or a bare name.
func (d *Defendant) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*d = Defendant{Name: name}
		return nil
	}

	type plain Defendant
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*d = Defendant(p)
	return nil
}

// ServiceDetails are the when/where/what of service. They are normally left
// blank for the process server to complete by hand.
type ServiceDetails struct {
	Date    string `json:"date,omitempty"`
	Time    string `json:"time,omitempty"`
	Place   string `json:"place,omitempty"`
	Process string `json:"process,omitempty"`
}

// Normalize folds the legacy allDefendants/defendantAddress inputs into
// Defendants and trims whitespace from names. It is idempotent.
func (r *CaseRecord) Normalize() {
	if len(r.Defendants) == 0 && len(r.AllDefendants) > 0 {
		r.Defendants = make([]Defendant, 0, len(r.AllDefendants))
		for _, name := range r.AllDefendants {
			r.Defendants = append(r.Defendants, Defendant{Name: name})
		}
	}

	kept := r.Defendants[:0]
	for _, d := range r.Defendants {
		d.Name = strings.TrimSpace(d.Name)
		d.Address = strings.TrimSpace(d.Address)
		if d.Name == "" {
			continue
		}
		kept = append(kept, d)
	}
	r.Defendants = kept

	// The legacy address belongs to the served defendant. It is consumed
	// once applied so a later ForDefendant copy cannot move it.
	if r.DefendantAddress != "" {
		if i := r.ServedIndex(); i >= 0 {
			if r.Defendants[i].Address == "" {
				r.Defendants[i].Address = strings.TrimSpace(r.DefendantAddress)
			}
			r.DefendantAddress = ""
		}
	}
}

// ServedIndex returns the index of the defendant named in the service
// statement: DefendantName when set, otherwise the first defendant.
// It returns -1 when DefendantName is not one of the defendants.
func (r *CaseRecord) ServedIndex() int {
	if r.DefendantName == "" {
		if len(r.Defendants) == 0 {
			return -1
		}
		return 0
	}
	want := strings.TrimSpace(r.DefendantName)
	for i, d := range r.Defendants {
		if d.Name == want {
			return i
		}
	}
	for i, d := range r.Defendants {
		if strings.EqualFold(d.Name, want) {
			return i
		}
	}
	return -1
}

// DefendantNames returns the defendant names in order.
func (r *CaseRecord) DefendantNames() []string {
	names := make([]string, len(r.Defendants))
	for i, d := range r.Defendants {
		names[i] = d.Name
	}
	return names
}

// ForDefendant returns a copy of the record whose service statement names
// the defendant at index i.
func (r CaseRecord) ForDefendant(i int) CaseRecord {
	out := r
	out.Defendants = append([]Defendant(nil), r.Defendants...)
	out.DefendantName = r.Defendants[i].Name
	out.DefendantAddress = ""
	return out
}
