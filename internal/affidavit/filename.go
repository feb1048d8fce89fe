package affidavit

import (
	"strings"

	"github.com/GMettam/batch-affidavit-web/internal/model"
)

// Filename returns the download name for an affidavit:
// Affidavit_<case number>[_<served defendant>].docx. Slashes in the case
// number become dashes; the defendant suffix is only added when the record
// names a served defendant, with every non-alphanumeric character replaced.
func Filename(rec *model.CaseRecord) string {
	var b strings.Builder
	b.WriteString("Affidavit_")
	b.WriteString(strings.ReplaceAll(strings.TrimSpace(rec.CaseNumber), "/", "-"))

	if name := strings.TrimSpace(rec.DefendantName); name != "" {
		b.WriteByte('_')
		for _, r := range name {
			if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
				b.WriteRune(r)
			} else {
				b.WriteByte('_')
			}
		}
	}

	b.WriteString(".docx")
	return b.String()
}
