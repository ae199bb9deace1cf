package dto

// Auth Request DTOs

// RegisterRequest contains user registration data
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,password_policy"`
	EnableMFA bool   `json:"enableMfa"`
}

// LoginRequest contains login credentials and, for MFA accounts, the current code
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	OTP      string `json:"otp,omitempty" validate:"omitempty,numeric,len=6"`
}

// PasswordResetRequest asks for a reset token to be delivered to an email address
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest sets a new password using a delivered reset token
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,password_policy"`
}

// Auth Response DTOs

// UserIdentity is the public identity of the authenticated user
type UserIdentity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthResponse is returned by every auth endpoint. MFARequired is set when a
// login needs a one-time code; QRCode and Secret carry an MFA enrollment.
type AuthResponse struct {
	Success     bool          `json:"success"`
	Message     string        `json:"message,omitempty"`
	MFARequired bool          `json:"mfaRequired,omitempty"`
	QRCode      string        `json:"qrCode,omitempty"`
	Secret      string        `json:"secret,omitempty"`
	Token       string        `json:"token,omitempty"`
	User        *UserIdentity `json:"user,omitempty"`
}

// MFAEnrollment is produced once, at registration. Secret and QRCode go to the
// user; only SealedSecret is stored.
type MFAEnrollment struct {
	Secret       string
	URL          string
	QRCode       string
	SealedSecret string
}
