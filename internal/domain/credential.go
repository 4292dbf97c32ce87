package domain

import "time"

// CredentialStatus enumerates lifecycle states for admission credentials.
type CredentialStatus string

const (
	CredentialStatusPending   CredentialStatus = "pending"
	CredentialStatusConfirmed CredentialStatus = "confirmed"
	CredentialStatusCancelled CredentialStatus = "cancelled"
	CredentialStatusCompleted CredentialStatus = "completed"
	CredentialStatusExpired   CredentialStatus = "expired"
)

// allowedTransitions lists outgoing edges per status. Terminal states have none.
var allowedTransitions = map[CredentialStatus][]CredentialStatus{
	CredentialStatusPending:   {CredentialStatusConfirmed, CredentialStatusCancelled, CredentialStatusExpired},
	CredentialStatusConfirmed: {CredentialStatusCompleted, CredentialStatusCancelled, CredentialStatusExpired},
}

// Valid reports whether s is a known status.
func (s CredentialStatus) Valid() bool {
	switch s {
	case CredentialStatusPending, CredentialStatusConfirmed, CredentialStatusCancelled,
		CredentialStatusCompleted, CredentialStatusExpired:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are permitted from s.
func (s CredentialStatus) Terminal() bool {
	return s == CredentialStatusCancelled || s == CredentialStatusCompleted || s == CredentialStatusExpired
}

// CanTransitionTo reports whether moving from s to target is a legal edge.
func (s CredentialStatus) CanTransitionTo(target CredentialStatus) bool {
	for _, next := range allowedTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// GuestCounts holds visitor counts per pricing category. Adults is the
// primary category and must be at least one at creation.
type GuestCounts struct {
	Adults     int `json:"adults"`
	Children   int `json:"children"`
	Foreigners int `json:"foreigners"`
}

// Total returns the number of admitted guests.
func (g GuestCounts) Total() int {
	return g.Adults + g.Children + g.Foreigners
}

// Credential is the persisted booking record bound to a unique token.
type Credential struct {
	ID          string
	OwnerID     string
	MonumentID  string
	VisitDate   Date
	Guests      GuestCounts
	TotalAmount float64
	Token       string
	Status      CredentialStatus
	QRCode      *string
	ExpiryDate  Date
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ExpiresAt returns the instant after which the credential no longer admits.
func (c *Credential) ExpiresAt(loc *time.Location) time.Time {
	return c.ExpiryDate.Midnight(loc)
}

// IsExpired reports whether now lies strictly after the expiry instant.
func (c *Credential) IsExpired(now time.Time, loc *time.Location) bool {
	return now.After(c.ExpiresAt(loc))
}

// EffectiveStatus folds lazy expiry into the stored status: a non-terminal
// credential past its expiry instant reads as expired.
func (c *Credential) EffectiveStatus(now time.Time, loc *time.Location) CredentialStatus {
	if !c.Status.Terminal() && c.IsExpired(now, loc) {
		return CredentialStatusExpired
	}
	return c.Status
}
