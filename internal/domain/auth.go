package domain

// SignupForm holds the customer signup fields.
type SignupForm struct {
	FirstName       string
	LastName        string
	Email           string
	Phone1          string
	Phone2          string
	Password        string
	ConfirmPassword string
}

// Credentials identify an account for login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Account acknowledges a created account.
type Account struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Message string `json:"message,omitempty"`
}

// LoginResult carries issued tokens.
type LoginResult struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UserID       string `json:"id"`
}

// Session is what gets persisted after a successful login.
type Session struct {
	UserID       string
	UserType     UserType
	Email        string
	AccessToken  string
	RefreshToken string
}
