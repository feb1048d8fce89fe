// Package gpc pulls the lodgement details printed on a General Procedure Claim
// out of its plain text: the registry block, the date lodged and the lodging
// law firm.
package gpc

import (
	"regexp"
	"strings"

	"github.com/GMettam/batch-affidavit-web/internal/model"
)

const registryMarker = "REGISTRY AT:"

var (
	registryStreet     = regexp.MustCompile(`(\d+\s+[A-Za-z\s]+?)(?:\s+Date|\s+[A-Z]{2,}\s+WA)`)
	registryCity       = regexp.MustCompile(`([A-Z\s]+?\s+WA\s+\d{4})`)
	registryNameStop   = regexp.MustCompile(`\s+(?:MAGISTRATES|Case|Ph:)`)
	registryNameLine   = regexp.MustCompile(`^([^(]+?)(?:\s+\(|$)`)
	registryStreetLine = regexp.MustCompile(`^(\d+\s+[A-Za-z\s]+?)(?:\s+Date|$)`)
	registryCityLine   = regexp.MustCompile(`[A-Z]{2,}\s+WA\s+\d{4}`)
	leadingDigits      = regexp.MustCompile(`^\d+\s+`)

	dateLodged = regexp.MustCompile(`(?i)Date lodged:\s*(\d{2}/\d{2}/\d{4})`)

	serviceAddress = regexp.MustCompile(`(?i)address for service:\s+(.+?)(?:\s+Claimant ref:|Description of Claim)`)
	firmAndAddress = regexp.MustCompile(`(?i)^(.+?)\s+(Level|Suite|\d+)\s+(.+)$`)
	claimantRef    = regexp.MustCompile(`(?i)Claimant ref:\s*(\S+(?:\s+\S+)*?)(?:\s+Claimant email:|Claimant telephone:|Description of Claim)`)
	claimantEmail  = regexp.MustCompile(`(?i)Claimant email:\s*(\S+@\S+)`)
	claimantPhone  = regexp.MustCompile(`(?i)Claimant telephone:\s*([0-9()\s-]+?)(?:\s+Claimant mobile:|Claimant email:|Description of Claim)`)
)

// Parse extracts everything the affidavit needs from the claim text.
func Parse(text string) model.Lodgement {
	return model.Lodgement{
		Registry:   ParseRegistry(text),
		DateLodged: DateLodged(text),
		LawFirm:    ParseLawFirm(text),
	}
}

// ParseRegistry reads the registry name, street and city line that follow
// "REGISTRY AT:". Missing parts are left empty.
func ParseRegistry(text string) model.Registry {
	var reg model.Registry

	lines := strings.Split(text, "\n")
	start := -1
	for i, l := range lines {
		if strings.Contains(l, registryMarker) {
			start = i
			break
		}
	}
	if start < 0 {
		return reg
	}

	line := lines[start]
	after := strings.TrimSpace(line[strings.Index(line, registryMarker)+len(registryMarker):])
	if m := registryStreet.FindStringSubmatch(after); m != nil {
		reg.Street = strings.TrimSpace(m[1])
	}
	if m := registryCity.FindStringSubmatch(after); m != nil {
		reg.CityStatePostcode = strings.TrimSpace(m[1])
	}
	name := after
	if reg.Street != "" {
		name = strings.TrimSpace(after[:strings.Index(after, reg.Street)])
	}
	if n := strings.TrimSpace(registryNameStop.Split(name, 2)[0]); n != "" {
		reg.Name = n
	}

	end := min(start+6, len(lines))
	for i := start + 1; i < end; i++ {
		l := strings.TrimSpace(lines[i])

		if i == start+1 && isRegistryNameLine(l) {
			if m := registryNameLine.FindStringSubmatch(l); m != nil && strings.TrimSpace(m[1]) != "" {
				reg.Name = strings.TrimSpace(m[1])
			}
		}
		if reg.Street == "" && leadingDigits.MatchString(l) {
			if m := registryStreetLine.FindStringSubmatch(l); m != nil {
				reg.Street = strings.TrimSpace(m[1])
			}
		}
		if reg.CityStatePostcode == "" && registryCityLine.MatchString(l) {
			if m := registryCity.FindStringSubmatch(l); m != nil {
				reg.CityStatePostcode = strings.TrimSpace(m[1])
			}
		}
	}

	return reg
}

func isRegistryNameLine(l string) bool {
	if l == "" || len(l) >= 100 || (l[0] >= '0' && l[0] <= '9') {
		return false
	}
	for _, skip := range []string{"Ph:", "Date lodged", "PART", "PLEASE READ"} {
		if strings.Contains(l, skip) {
			return false
		}
	}
	return true
}

// DateLodged returns the dd/mm/yyyy lodgement date, or "".
func DateLodged(text string) string {
	if m := dateLodged.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// ParseLawFirm reads the lodging law firm's address for service, reference,
// email and telephone.
func ParseLawFirm(text string) model.LawFirm {
	firm := model.LawFirm{LodgedBy: model.LodgedByClaimantLawyer}
	if strings.Contains(text, "Defendant's address") ||
		strings.Contains(text, "Defendant details") ||
		strings.Contains(strings.ToLower(text), "defendant ref:") {
		firm.LodgedBy = model.LodgedByDefendantLawyer
	}

	if m := serviceAddress.FindStringSubmatch(text); m != nil {
		if parts := firmAndAddress.FindStringSubmatch(strings.TrimSpace(m[1])); parts != nil {
			firm.Name = strings.TrimSpace(parts[1])
			firm.Address = strings.TrimSpace(parts[2] + " " + parts[3])
		}
	}
	if m := claimantRef.FindStringSubmatch(text); m != nil {
		firm.Reference = strings.TrimSpace(m[1])
	}
	if m := claimantEmail.FindStringSubmatch(text); m != nil {
		firm.Email = strings.TrimSpace(m[1])
	}
	if m := claimantPhone.FindStringSubmatch(text); m != nil {
		firm.Telephone = FormatPhone(strings.TrimSpace(m[1]))
	}

	return firm
}

// FormatPhone formats a ten-digit Australian number: mobiles as
// "04XX XXX XXX", landlines as "(0X) XXXX XXXX". Anything else is returned
// unchanged.
func FormatPhone(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) != 10 {
		return phone
	}

	switch {
	case strings.HasPrefix(d, "04"):
		return d[:4] + " " + d[4:7] + " " + d[7:]
	case strings.HasPrefix(d, "0"):
		return "(" + d[:2] + ") " + d[2:6] + " " + d[6:]
	default:
		return phone
	}
}
