package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/GMettam/batch-affidavit-web/internal/model"
)

// ErrNoJSON is returned when a reply holds no parseable JSON object.
var ErrNoJSON = errors.New("could not parse JSON from response")

const systemPrompt = "You extract structured case data from court documents. Reply with JSON only."

// BuildPrompt constructs the extraction prompt for a claim's text.
func BuildPrompt(text string) string {
	return fmt.Sprintf(`You are extracting information from a Western Australian Magistrates Court GPC (General Procedure Claim) document.

Extract the following information and return ONLY a valid JSON object with no additional text:

{
  "registry": "the registry the claim was lodged at (e.g., Perth)",
  "caseNumber": "the GCLM case number (e.g., GCLM/1234/2025)",
  "claimant": "the claimant's full name",
  "claimantAddress": "the claimant's address",
  "defendants": [
    {"name": "each defendant's full name, in the order listed", "address": "that defendant's full address"}
  ]
}

GPC Document Text:
%s

Remember: Return ONLY the JSON object, nothing else.`, text)
}

var fencedJSON = []*regexp.Regexp{
	regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```"),
	regexp.MustCompile("(?s)```\\s*(.*?)\\s*```"),
}

// extracted accepts the current reply shape and the older single-defendant
// one ({"defendant": ..., "defendantAddress": ...}).
type extracted struct {
	model.CaseRecord
	Defendant string `json:"defendant"`
}

// ParseCaseJSON decodes a model reply into a case record. The reply may be
// bare JSON or wrapped in a fenced code block.
func ParseCaseJSON(raw string) (*model.CaseRecord, error) {
	body, err := jsonBody(raw)
	if err != nil {
		return nil, err
	}

	var e extracted
	if err := json.Unmarshal([]byte(body), &e); err != nil {
		return nil, fmt.Errorf("decode case: %w", err)
	}

	rec := e.CaseRecord
	if len(rec.Defendants) == 0 && len(rec.AllDefendants) == 0 && strings.TrimSpace(e.Defendant) != "" {
		rec.Defendants = []model.Defendant{{Name: e.Defendant, Address: rec.DefendantAddress}}
		rec.DefendantAddress = ""
	}
	rec.Normalize()
	return &rec, nil
}

func jsonBody(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if json.Valid([]byte(raw)) {
		return raw, nil
	}
	for _, re := range fencedJSON {
		if m := re.FindStringSubmatch(raw); m != nil && json.Valid([]byte(m[1])) {
			return m[1], nil
		}
	}
	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start >= 0 && end > start {
		if candidate := raw[start : end+1]; json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}
	return "", ErrNoJSON
}
