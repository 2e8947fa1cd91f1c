package domain

// Profile stores a locally saved marketplace session.
type Profile struct {
	Name         string   `json:"name"`
	IsDefault    bool     `json:"is_default"`
	APIURL       string   `json:"api_url,omitempty"`
	UserID       string   `json:"user_id,omitempty"`
	UserType     UserType `json:"user_type,omitempty"`
	Email        string   `json:"email,omitempty"`
	AccessToken  string   `json:"access_token,omitempty"`
	RefreshToken string   `json:"refresh_token,omitempty"`
}

// HasSession reports whether the profile carries a usable login.
func (p Profile) HasSession() bool {
	return p.UserID != "" && p.AccessToken != ""
}

// Config stores all local profiles.
type Config struct {
	Profiles []Profile `json:"profiles"`
}
