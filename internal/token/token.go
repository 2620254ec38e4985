package token

import (
	"regexp"
	"strings"
)

// TokenType distinguishes the two kinds of scannable tokens.
type TokenType string

const (
	// TypeID identifies a ticket and is used for attendee check-in.
	TypeID TokenType = "id"
	// TypeAT identifies a badge and is used for sponsor scanning and
	// field check-ins.
	TypeAT TokenType = "at"
)

// SourceFormat records which wire representation a token was scanned in.
type SourceFormat string

const (
	// FormatSimple is the delimited form "ID$<value>$ID" / "AT$<value>$AT".
	FormatSimple SourceFormat = "simple"
	// FormatURL is the link form "https://<host>/t/<id|at>/<value>/".
	FormatURL SourceFormat = "url"
)

// ScanMode is the operational context a scan happens in. It determines
// which token type is acceptable.
type ScanMode string

const (
	ModeCheckin ScanMode = "checkin"
	ModeSponsor ScanMode = "sponsor"
	ModeField   ScanMode = "field"
)

// TestValue is the sentinel token value used to verify scanner setup.
// It validates under every mode and must never be sent to the backend.
const TestValue = "TESTTESTTESTTEST"

// Token is the parsed, immutable representation of a scanned QR payload.
type Token struct {
	Type   TokenType
	Value  string
	Test   bool
	Format SourceFormat
}

// The backend accepts token values between 40 and 64 hex characters.
// Some deployments document exactly 64; the permissive bound is used
// here and kept in one place.
const hexValue = `[0-9a-fA-F]{40,64}|TESTTESTTESTTEST`

var patterns = []struct {
	re     *regexp.Regexp
	typ    TokenType
	format SourceFormat
}{
	{regexp.MustCompile(`(?i)^ID\$(` + hexValue + `)\$ID$`), TypeID, FormatSimple},
	{regexp.MustCompile(`(?i)^AT\$(` + hexValue + `)\$AT$`), TypeAT, FormatSimple},
	{regexp.MustCompile(`(?i)^https?://[^/]+/t/id/(` + hexValue + `)/?$`), TypeID, FormatURL},
	{regexp.MustCompile(`(?i)^https?://[^/]+/t/at/(` + hexValue + `)/?$`), TypeAT, FormatURL},
}

// Parse converts a raw scanned string into a Token. Leading and
// trailing whitespace is stripped first, since camera scanners attach
// artifacts. The ID/AT delimiters and hex digits match
// case-insensitively; the extracted value is normalized to lowercase,
// except the test sentinel which must appear verbatim.
//
// Unrecognized input is an expected, common case and is reported as an
// *InvalidFormatError, never a panic.
func Parse(raw string) (Token, error) {
	trimmed := strings.TrimSpace(raw)
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		value := m[1]
		if value != TestValue {
			// The whole pattern matches case-insensitively, but the
			// sentinel is only valid verbatim.
			if strings.EqualFold(value, TestValue) {
				break
			}
			value = strings.ToLower(value)
		}
		return Token{
			Type:   p.typ,
			Value:  value,
			Test:   value == TestValue,
			Format: p.format,
		}, nil
	}
	return Token{}, &InvalidFormatError{Raw: raw}
}

// RequiredType returns the token type a scan mode accepts.
func RequiredType(mode ScanMode) TokenType {
	if mode == ModeCheckin {
		return TypeID
	}
	return TypeAT
}

// ValidateForMode checks that tok is acceptable under mode. Test
// tokens are valid under every mode. A recognized token of the wrong
// type yields a *WrongTokenTypeError carrying both types, so callers
// can tell the user what they scanned versus what the mode needs.
func ValidateForMode(tok Token, mode ScanMode) error {
	if tok.Test {
		return nil
	}
	if required := RequiredType(mode); tok.Type != required {
		return &WrongTokenTypeError{Scanned: tok.Type, Expected: required, Mode: mode}
	}
	return nil
}
