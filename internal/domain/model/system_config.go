package model

type SystemConfig struct {
	ID          string    `json:"id"`
	AllowSignup bool      `json:"allow_signup"`
	CreatedAt   Timestamp `json:"created_at"`
	UpdatedAt   Timestamp `json:"updated_at"`
}

type SystemConfigUpdate struct {
	AllowSignup *bool `json:"allow_signup,omitempty"`
}
