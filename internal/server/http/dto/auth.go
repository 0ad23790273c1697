package dto

// AuthRequest describes email/password payload.
type AuthRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse echoes the wallet identity the session belongs to.
type AuthResponse struct {
	Email string `json:"email"`
	Token string `json:"token"`
}
