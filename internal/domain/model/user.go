package model

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	FullName       *string   `json:"full_name,omitempty"`
	Role           string    `json:"role"`
	IsActive       bool      `json:"is_active"`
	SolvedProblems []string  `json:"solved_problems"`
	CreatedAt      Timestamp `json:"created_at"`
	UpdatedAt      Timestamp `json:"updated_at"`
}

// IsAdmin is true only for a non-nil profile whose role is exactly "admin".
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// LoginCredentials are sent as the username/password form fields.
type LoginCredentials struct {
	Username string
	Password string
}

type SignupRequest struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName *string `json:"full_name,omitempty"`
}

// UserUpdate is a partial profile update; nil fields are left alone.
type UserUpdate struct {
	Email    *string `json:"email,omitempty"`
	FullName *string `json:"full_name,omitempty"`
	Password *string `json:"password,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// TokenResponse is the body of a successful login or signup.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
