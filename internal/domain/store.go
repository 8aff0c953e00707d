package domain

// TokenStore persists the session credentials and the last-known profile.
// The three slots (access, refresh, user) are only ever cleared together.
type TokenStore interface {
	// === Credentials ===
	AccessToken() (string, error)
	RefreshToken() (string, error)
	SaveCredentials(creds Credentials) error
	SaveAccessToken(token string) error

	// === Profile snapshot ===
	Profile() (*UserProfile, error) // nil, nil when none is stored
	SaveProfile(profile *UserProfile) error

	// Clear wipes all three slots atomically
	Clear() error

	Close() error
}
