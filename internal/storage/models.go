package storage

import "time"

// Preferences is the state that survives restarts: the endpoint URL and the
// layout of the tree (which sections are open). Session state such as the
// last response or the pending request never lands here.
type Preferences struct {
	URL       string    `json:"url"`
	Expanded  []string  `json:"expanded,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
