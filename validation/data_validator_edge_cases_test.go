package validation

import (
	"testing"
)

// ============================================================================
// EDGE CASE TESTS
// ============================================================================

func TestValidateQuery_OnlySpecialCharacters(t *testing.T) {
	validator := NewDataValidator()

	testCases := []struct {
		name  string
		input string
	}{
		{"Only special chars", "!@#$^&*"},
		{"At signs only", "@@@@@"},
		{"Hash only", "####"},
		{"Underscore only", "____"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := validator.ValidateQuery(tc.input); err == nil {
				t.Errorf("Expected error for input with only special characters: '%s'", tc.input)
			}
		})
	}
}

func TestValidateQuery_NullBytes(t *testing.T) {
	validator := NewDataValidator()

	if err := validator.ValidateQuery("abc\x00def"); err == nil {
		t.Errorf("Expected error for input with null bytes")
	}
}

func TestValidateQuery_OtherScripts(t *testing.T) {
	validator := NewDataValidator()

	testCases := []struct {
		name  string
		input string
	}{
		{"Hindi", "पैरासिटामोल"},
		{"Greek", "Γειά"},
		{"Cyrillic", "Привет"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := validator.ValidateQuery(tc.input); err != nil {
				t.Errorf("Expected letters in any script to be accepted: '%s': %v", tc.input, err)
			}
		})
	}
}

func TestValidateQuery_Emojis(t *testing.T) {
	validator := NewDataValidator()

	if err := validator.ValidateQuery("🙂🙂"); err == nil {
		t.Error("Expected error for emoji-only input")
	}
	if err := validator.ValidateQuery("dolo 💊"); err != nil {
		t.Errorf("Expected emoji beside a brand name to be accepted, got %v", err)
	}
}

func TestValidateQuery_MultibyteLength(t *testing.T) {
	validator := NewDataValidator()

	// Two runes, four bytes
	if err := validator.ValidateQuery("éè"); err != nil {
		t.Errorf("Expected two accented letters to satisfy the minimum length: %v", err)
	}
	// One rune, two bytes
	if err := validator.ValidateQuery("é"); err == nil {
		t.Error("Expected a single multibyte letter to be rejected")
	}
}

func TestHasExcessiveRepetition(t *testing.T) {
	testCases := []struct {
		input    string
		expected bool
	}{
		{"aaaaaaaaaa", false},
		{"aaaaaaaaaaa", true},
		{"ab" + "bbbbbbbbbbb", true},
		{"éééééééééééé", true},
		{"dolo 650", false},
		{"", false},
	}

	for _, tc := range testCases {
		if got := hasExcessiveRepetition(tc.input); got != tc.expected {
			t.Errorf("hasExcessiveRepetition(%q) = %v, expected %v", tc.input, got, tc.expected)
		}
	}
}
