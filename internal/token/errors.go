package token

import "fmt"

// InvalidFormatError reports a scanned string that matched none of the
// known token formats. Raw retains the original input for diagnostics.
type InvalidFormatError struct {
	Raw string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid token format: %q", e.Raw)
}

// WrongTokenTypeError reports a well-formed token whose type is not
// acceptable under the current scan mode.
type WrongTokenTypeError struct {
	Scanned  TokenType
	Expected TokenType
	Mode     ScanMode
}

func (e *WrongTokenTypeError) Error() string {
	return fmt.Sprintf("scanned %s token, but %s mode requires an %s token",
		e.Scanned, e.Mode, e.Expected)
}
