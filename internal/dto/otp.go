package dto

// OTPAcknowledgement is returned after a code was delivered.
type OTPAcknowledgement struct {
	Message   string `json:"message"`
	ExpiresIn int    `json:"expires_in"`
}

// VerifyOTPRequest carries a submitted six digit code.
type VerifyOTPRequest struct {
	OTP string `json:"otp" validate:"required,len=6,numeric"`
}

// EmailChangeRequest asks for a code to move the account to a new email.
type EmailChangeRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

// PasswordChangeRequest asks for a code to replace the account password.
type PasswordChangeRequest struct {
	CurrentPassword      string `json:"current_password" validate:"required"`
	Password             string `json:"password" validate:"required,min=8,max=72,password"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

// UpdateNameRequest changes the admin display name.
type UpdateNameRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// ContactOTPRequest starts a contact form verification.
type ContactOTPRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

// ContactVerifyRequest submits the message together with the code.
type ContactVerifyRequest struct {
	Email       string `json:"email" validate:"required,email,max=255"`
	Subject     string `json:"subject" validate:"required,max=255"`
	MessageText string `json:"message_text" validate:"required,max=5000"`
	OTP         string `json:"otp" validate:"required,len=6,numeric"`
}
