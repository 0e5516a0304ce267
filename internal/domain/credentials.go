package domain

// Credentials holds per-call venue API credentials. The gateway borrows
// them for the duration of one call and never stores or logs them.
type Credentials struct {
	APIKey     string
	SecretKey  string
	Passphrase string // required by some venues
	UserID     string
}

// HasSecret reports whether a signing key is present.
func (c Credentials) HasSecret() bool {
	return c.SecretKey != ""
}
