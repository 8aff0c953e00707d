package domain

import "encoding/json"

// SessionStatus is the lifecycle state of the current user session
type SessionStatus int

const (
	StatusLoading SessionStatus = iota
	StatusAuthenticated
	StatusAnonymous
)

func (s SessionStatus) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Credentials is the access/refresh token pair issued at login
type Credentials struct {
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh"`
}

// UserProfile is the signed-in user's identity and contact data.
// JSON names follow the backend wire format.
type UserProfile struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	DisplayName  string `json:"nombre"`
	Phone        string `json:"telefono,omitempty"`
	Country      string `json:"pais,omitempty"`
	Avatar       string `json:"avatar,omitempty"`
	RegisteredAt string `json:"fecha_registro,omitempty"`

	// Subscription shape is backend-defined; kept opaque
	ActiveSubscription json.RawMessage `json:"suscripcion_activa,omitempty"`
}

// Session is the single source of truth for "who is signed in"
type Session struct {
	User   *UserProfile
	Status SessionStatus
}

// IsAuthenticated reports whether a user is signed in
func (s Session) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated && s.User != nil
}

// Registration holds the fields sent when creating an account
type Registration struct {
	Email       string `json:"email"`
	DisplayName string `json:"nombre"`
	Password    string `json:"password"`
}

// ProfileUpdate holds the editable profile fields. Empty fields are omitted.
type ProfileUpdate struct {
	DisplayName string `json:"nombre,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"telefono,omitempty"`
	Country     string `json:"pais,omitempty"`
}
