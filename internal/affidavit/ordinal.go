package affidavit

// MaxDefendants is the number of defendant sections Form 11 can carry.
const MaxDefendants = 6

var ordinals = [MaxDefendants]string{"First", "Second", "Third", "Fourth", "Fifth", "Sixth"}

// Ordinal returns the ordinal word for the zero-based position i, or "" when
// i is outside the form's capacity.
func Ordinal(i int) string {
	if i < 0 || i >= MaxDefendants {
		return ""
	}
	return ordinals[i]
}

// DefendantLabel returns the section label for position i, e.g. "Second Defendant".
func DefendantLabel(i int) string {
	return Ordinal(i) + " Defendant"
}
