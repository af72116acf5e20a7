package models

// RegisterRequest is the registration form.
type RegisterRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=15"`
	Email           string `json:"email" validate:"required,email,max=255"`
	Password        string `json:"password" validate:"required,min=8,max=15"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// LoginRequest is the login form.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=15"`
}

// VerifyEmailRequest carries the token from the verification link.
type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

// ResendVerificationRequest asks for a fresh verification email.
type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// FriendUsernameRequest names the other party of a friend operation.
type FriendUsernameRequest struct {
	UsernameTo string `json:"username_to" validate:"required,min=3,max=15"`
}

// LoginResponse is returned alongside the session cookie.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	User        UserResponse `json:"user"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// RemovalResponse reports whether a delete matched anything.
type RemovalResponse struct {
	Message string `json:"message"`
	Removed bool   `json:"removed"`
}
