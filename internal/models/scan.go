package models

import "time"

// ScanOutcome records how a scan ended, for the local log. Successful
// scans use OutcomeOK or OutcomeTest; failures record the error kind.
type ScanOutcome string

const (
	OutcomeOK            ScanOutcome = "ok"
	OutcomeTest          ScanOutcome = "test"
	OutcomeInvalidFormat ScanOutcome = "invalid_format"
	OutcomeWrongType     ScanOutcome = "wrong_token_type"
)

// APIOutcome maps a backend failure kind into the scan log.
func APIOutcome(kind ErrorKind) ScanOutcome {
	return ScanOutcome(kind)
}

// ScanRecord is one entry in the on-device scan log. The log is
// append-only; it exists so on-site staff can reconstruct what a
// device did when the venue network was flaky.
type ScanRecord struct {
	ID             string      `json:"id" db:"id"`
	ConferenceSlug string      `json:"conference_slug" db:"conference_slug"`
	Raw            string      `json:"raw" db:"raw"`
	TokenType      string      `json:"token_type" db:"token_type"`
	Outcome        ScanOutcome `json:"outcome" db:"outcome"`
	Message        string      `json:"message,omitempty" db:"message"`
	ScannedAt      time.Time   `json:"scanned_at" db:"scanned_at"`
}
