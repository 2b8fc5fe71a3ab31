package errors

import (
	"strings"
	"testing"
)

func TestValidateCode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "A01", false},
		{"valid leading zero", "007", false},
		{"valid dotted", "10.1.2", false},
		{"valid with space", "ICD 10", false},
		{"valid unicode", "Ä-12", false},

		{"empty", "", true},
		{"too long", strings.Repeat("x", 300), true},
		{"null byte", "foo\x00bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidCode) {
				t.Errorf("ValidateCode(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidCode)
			}
		})
	}
}

func TestValidateCodes(t *testing.T) {
	if err := ValidateCodes("targets", nil); !Is(err, ErrCodeInvalidArgument) {
		t.Errorf("ValidateCodes(nil) = %v, want INVALID_ARGUMENT", err)
	}
	if err := ValidateCodes("targets", []string{"a", ""}); !Is(err, ErrCodeInvalidCode) {
		t.Errorf("ValidateCodes with empty code = %v, want INVALID_CODE", err)
	}
	if err := ValidateCodes("targets", []string{"a", "b"}); err != nil {
		t.Errorf("ValidateCodes(valid) = %v", err)
	}
}

func TestValidateMaxDepth(t *testing.T) {
	tests := []struct {
		depth   int
		wantErr bool
	}{
		{1, false},
		{5, false},
		{0, true},
		{-3, true},
	}
	for _, tt := range tests {
		err := ValidateMaxDepth(tt.depth)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateMaxDepth(%d) error = %v, wantErr %v", tt.depth, err, tt.wantErr)
		}
		if err != nil && !Is(err, ErrCodeInvalidDepth) {
			t.Errorf("ValidateMaxDepth(%d) code = %v", tt.depth, GetCode(err))
		}
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "icd10-2024", false},
		{"valid dots", "atc.v2", false},
		{"empty", "", true},
		{"slash", "a/b", true},
		{"traversal", "..", true},
		{"backslash", "a\\b", true},
		{"control", "a\tb", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"redis://localhost:6379", false},
		{"mongodb://db:27017", false},
		{"mongodb+srv://cluster", false},
		{"", true},
		{"http://example.com", true},
	}
	for _, tt := range tests {
		err := ValidateURL(tt.url, "redis", "mongodb", "mongodb+srv")
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
	}
}
