package models

// Registration represents an attendee record as returned by the
// conference backend. Lookup and store responses wrap a single
// registration under a "reg" key; search wraps a list under "regs".
type Registration struct {
	ID           int      `json:"id"`
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Company      string   `json:"company,omitempty"`
	Email        string   `json:"email,omitempty"`
	PhotoConsent string   `json:"photoconsent,omitempty"`
	Additional   []string `json:"additional,omitempty"`
	CheckedIn    string   `json:"checkedin,omitempty"`
	Token        string   `json:"token,omitempty"`
	Note         string   `json:"note,omitempty"`
}

// LookupResponse is the body of GET api/lookup/.
type LookupResponse struct {
	Reg Registration `json:"reg"`
}

// SearchResponse is the body of GET api/search/.
type SearchResponse struct {
	Regs []Registration `json:"regs"`
}

// StoreRequest is the form-encoded body of POST api/store/.
// Token is the raw scanned string (or its short hex form); Note is
// only meaningful in sponsor mode.
type StoreRequest struct {
	Token string
	Note  string
}

// StoreResponse is the body of POST api/store/.
type StoreResponse struct {
	Reg Registration `json:"reg"`
}

// StatusResponse is the body of GET api/status/.
type StatusResponse struct {
	Status     string `json:"status"`
	Conference string `json:"name"`
	User       string `json:"user,omitempty"`
	Active     bool   `json:"active"`
}
