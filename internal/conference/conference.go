// Package conference models the conferences a device is registered to
// scan for, and builds the per-conference backend base URL the API
// client is constructed with.
package conference

import (
	"fmt"
	"time"

	"github.com/confscan/confscan/internal/token"
)

// Conference is one scanning configuration. The secret token is part
// of the URL, not a credential exchanged separately, so a conference
// entry is everything needed to reach its backend.
type Conference struct {
	Slug    string         `json:"slug" db:"slug"`
	Name    string         `json:"name" db:"name"`
	Scheme  string         `json:"scheme" db:"scheme"`
	Host    string         `json:"host" db:"host"`
	Token   string         `json:"token" db:"token"`
	Mode    token.ScanMode `json:"mode" db:"mode"`
	FieldID int            `json:"field_id,omitempty" db:"field_id"`
	AddedAt time.Time      `json:"added_at" db:"added_at"`
}

// Validate checks the fields needed to build a base URL.
func (c Conference) Validate() error {
	if c.Slug == "" {
		return fmt.Errorf("conference slug is empty")
	}
	if c.Host == "" {
		return fmt.Errorf("conference host is empty")
	}
	if c.Token == "" {
		return fmt.Errorf("conference token is empty")
	}
	switch c.Mode {
	case token.ModeCheckin, token.ModeSponsor:
	case token.ModeField:
		if c.FieldID <= 0 {
			return fmt.Errorf("field mode requires a positive field id")
		}
	default:
		return fmt.Errorf("unknown scan mode %q", c.Mode)
	}
	return nil
}

// BaseURL builds the backend base URL for this conference:
//
//	checkin: {scheme}://{host}/events/{slug}/checkin/{token}/
//	field:   {scheme}://{host}/events/{slug}/checkin/{token}/f{fieldId}/
//	sponsor: {scheme}://{host}/events/sponsor/scanning/{token}/
func (c Conference) BaseURL() string {
	scheme := c.Scheme
	if scheme == "" {
		scheme = "https"
	}
	if c.Mode == token.ModeSponsor {
		return fmt.Sprintf("%s://%s/events/sponsor/scanning/%s/", scheme, c.Host, c.Token)
	}
	base := fmt.Sprintf("%s://%s/events/%s/checkin/%s/", scheme, c.Host, c.Slug, c.Token)
	if c.Mode == token.ModeField {
		base += fmt.Sprintf("f%d/", c.FieldID)
	}
	return base
}
