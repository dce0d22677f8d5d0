// Package classifier maps free-text packaging labels to a closed set of dosage forms.
// Classification is a pure function with no state, safe for concurrent use.
package classifier

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DosageForm is the physical or administration category of a medicine
type DosageForm int

const (
	Tablet DosageForm = iota
	Capsule
	Syrup
	Drops
	Injection
	Gel
	Inhaler
	Powder
)

var dosageFormNames = [...]string{
	Tablet:    "Tablet",
	Capsule:   "Capsule",
	Syrup:     "Syrup",
	Drops:     "Drops",
	Injection: "Injection",
	Gel:       "Gel",
	Inhaler:   "Inhaler",
	Powder:    "Powder",
}

// String returns the display name of the dosage form
func (f DosageForm) String() string {
	if f < 0 || int(f) >= len(dosageFormNames) {
		return fmt.Sprintf("DosageForm(%d)", int(f))
	}
	return dosageFormNames[f]
}

// Valid reports whether f is one of the known forms
func (f DosageForm) Valid() bool {
	return f >= 0 && int(f) < len(dosageFormNames)
}

// MarshalJSON encodes the form as its name
func (f DosageForm) MarshalJSON() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("invalid dosage form %d", int(f))
	}
	return json.Marshal(f.String())
}

// UnmarshalJSON decodes a form name, case-insensitively
func (f *DosageForm) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("dosage form must be a string: %w", err)
	}
	parsed, err := ParseDosageForm(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// ParseDosageForm resolves a dosage form name, ignoring case and surrounding spaces
func ParseDosageForm(s string) (DosageForm, error) {
	s = strings.TrimSpace(s)
	for i, name := range dosageFormNames {
		if strings.EqualFold(name, s) {
			return DosageForm(i), nil
		}
	}
	return Tablet, fmt.Errorf("unknown dosage form %q", s)
}

// AllDosageForms returns every form in declaration order
func AllDosageForms() []DosageForm {
	forms := make([]DosageForm, len(dosageFormNames))
	for i := range dosageFormNames {
		forms[i] = DosageForm(i)
	}
	return forms
}

// Rule is one keyword-membership test of the classifier
type Rule struct {
	Form     DosageForm
	Keywords []string
}

// rules are evaluated in order and the first hit wins. Liquid and injectable
// forms sit before the tablet rule so that "dry syrup" never becomes a tablet.
var rules = []Rule{
	{Form: Syrup, Keywords: []string{"syrup", "suspension", "liquid", "solution", "linctus", "elixir", "oral drops"}},
	{Form: Drops, Keywords: []string{"drop"}},
	{Form: Injection, Keywords: []string{"injection", "vial", "ampoule", "pfs", "iv fluid", "infusion"}},
	{Form: Gel, Keywords: []string{"cream", "gel", "ointment", "lotion", "topical"}},
	{Form: Inhaler, Keywords: []string{"inhaler", "respules", "rotacaps", "transcaps"}},
	{Form: Capsule, Keywords: []string{"capsule", "cap "}},
	{Form: Tablet, Keywords: []string{"tablet", "tab ", "strip of"}},
	{Form: Powder, Keywords: []string{"sachet", "granules", "powder"}},
}

// Fallback is assigned when no rule matches
const Fallback = Tablet

// Rules returns a copy of the ordered rule table
func Rules() []Rule {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = Rule{Form: r.Form, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}

// Classify returns the dosage form for a packaging label and product name.
// It never fails: unmatched input gets the Tablet fallback.
func Classify(packLabel, name string) DosageForm {
	form, _ := ClassifyWithRule(packLabel, name)
	return form
}

// ClassifyWithRule is Classify that also reports the 1-based index of the
// rule that fired, or 0 when the fallback was used.
func ClassifyWithRule(packLabel, name string) (DosageForm, int) {
	text := strings.ToLower(packLabel + " " + name)

	for i, r := range rules {
		for _, kw := range r.Keywords {
			if strings.Contains(text, kw) {
				return r.Form, i + 1
			}
		}
	}

	return Fallback, 0
}
