package handler

import "github.com/veriscribe/signature-api/internal/core/domain"

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}

// errorResponse documents the failure envelope produced by the central error
// handler.
type errorResponse struct {
	Error           string   `json:"error"`
	Code            string   `json:"code,omitempty"`
	AvailableModels []string `json:"availableModels,omitempty"`
	Hint            string   `json:"hint,omitempty"`
}

// userResponse is the public projection of an account. The password hash and
// session epoch never leave the service.
type userResponse struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Age          int    `json:"age,omitempty"`
	College      string `json:"college,omitempty"`
	Bio          string `json:"bio,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
	CreatedAt    string `json:"createdAt"`
}

type profileResponse struct {
	User               userResponse `json:"user"`
	TotalVerifications int64        `json:"totalVerifications"`
}

type authResponse struct {
	Message string       `json:"message"`
	User    userResponse `json:"user"`
}

type statusResponse struct {
	Authenticated bool          `json:"authenticated"`
	User          *userResponse `json:"user,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type deletedResponse struct {
	Message string `json:"message"`
	Deleted int64  `json:"deleted"`
}

type modelsResponse struct {
	Models []string `json:"models"`
}

type statsResponse struct {
	Stats           *domain.GlobalStats `json:"stats"`
	Degraded        bool                `json:"degraded"`
	AvailableModels []string            `json:"availableModels"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Age:          u.Age,
		College:      u.College,
		Bio:          u.Bio,
		ProfileImage: u.ProfileImage,
		CreatedAt:    u.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}
