package dto

// UpdateAdvisorProfileRequest replaces the signed-in advisor's own profile.
// ProfileImage and Signature take base64 image data URIs; omitted images keep
// the stored file. An empty Password keeps the current one.
type UpdateAdvisorProfileRequest struct {
	AdvisorName          string  `json:"advisor_name" validate:"required,max=255"`
	Email                string  `json:"email" validate:"required,email,max=255"`
	Department           string  `json:"department" validate:"required,max=255"`
	Designation          string  `json:"designation" validate:"required,max=255"`
	FacebookURL          *string `json:"facebook_url" validate:"omitempty,url,max=255"`
	LinkedinURL          *string `json:"linkedin_url" validate:"omitempty,url,max=255"`
	Password             string  `json:"password" validate:"omitempty,min=8,max=72"`
	PasswordConfirmation string  `json:"password_confirmation" validate:"required_with=Password,eqfield=Password"`
	ProfileImage         *string `json:"profile_image,omitempty"`
	Signature            *string `json:"signature,omitempty"`
}
