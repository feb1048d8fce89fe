package model

// Registry is the court registry a claim was lodged at, as printed in the
// header of the affidavit.
type Registry struct {
	Name              string `json:"name,omitempty"`
	Street            string `json:"street,omitempty"`
	CityStatePostcode string `json:"city_state_postcode,omitempty"`
}

// Lines returns the non-empty registry lines in print order.
func (r Registry) Lines() []string {
	var lines []string
	for _, l := range []string{r.Name, r.Street, r.CityStatePostcode} {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// LodgedBy values for the lodgement table.
const (
	LodgedByClaimantLawyer  = "Claimant's Lawyer"
	LodgedByDefendantLawyer = "Defendant's Lawyer"
)

// LawFirm holds the lodging party's details for the foot of the affidavit.
type LawFirm struct {
	Name      string `json:"name,omitempty"`
	Address   string `json:"address,omitempty"`
	Telephone string `json:"telephone,omitempty"`
	Email     string `json:"email,omitempty"`
	Reference string `json:"reference,omitempty"`
	LodgedBy  string `json:"lodged_by,omitempty"`
}

// AddressForService joins firm name and address the way the form prints it.
func (f LawFirm) AddressForService() string {
	switch {
	case f.Name != "" && f.Address != "":
		return f.Name + ", " + f.Address
	case f.Name != "":
		return f.Name
	default:
		return f.Address
	}
}

// Lodgement is everything parsed from the claim text that is not part of
// the CaseRecord itself.
type Lodgement struct {
	Registry   Registry `json:"registry"`
	DateLodged string   `json:"date_lodged,omitempty"`
	LawFirm    LawFirm  `json:"law_firm"`
}
