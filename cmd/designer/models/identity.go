package models

// Identity is the authenticated caller, supplied per request by the
// external identity provider. The API never issues or validates
// credentials itself.
type Identity struct {
	UserID string `json:"user_id"`

	// Role is the platform-level role ("user" or "admin"), distinct
	// from per-workflow permission roles.
	Role string `json:"role"`
}

// IsPlatformAdmin reports whether the caller may manage the task type catalog
func (i Identity) IsPlatformAdmin() bool {
	return i.Role == "admin"
}
