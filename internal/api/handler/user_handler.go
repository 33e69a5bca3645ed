package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/veriscribe/signature-api/internal/api/middleware"
	"github.com/veriscribe/signature-api/internal/core/ports"
	"github.com/veriscribe/signature-api/internal/infrastructure/storage"
)

// UserHandler exposes profile management for the authenticated user.
type UserHandler struct {
	users   ports.UserService
	store   *storage.Store
	session *middleware.Session
}

func NewUserHandler(users ports.UserService, store *storage.Store, session *middleware.Session) *UserHandler {
	return &UserHandler{users: users, store: store, session: session}
}

// Profile godoc
// @Summary Fetch the caller's profile
// @Tags user
// @Produce json
// @Success 200 {object} profileResponse
// @Failure 401 {object} errorResponse
// @Router /api/user/profile [get]
func (h *UserHandler) Profile(c echo.Context) error {
	claims, err := sessionClaims(c)
	if err != nil {
		return err
	}

	user, total, err := h.users.Profile(c.Request().Context(), claims.UserID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, profileResponse{
		User:               toUserResponse(user),
		TotalVerifications: total,
	})
}

// UpdateProfile godoc
// @Summary Update profile fields
// @Description Multipart form. Absent fields are left unchanged; a new
// @Description profile image replaces and deletes the previous artifact.
// @Tags user
// @Accept mpfd
// @Produce json
// @Param email formData string false "New email"
// @Param age formData int false "Age"
// @Param college formData string false "College"
// @Param bio formData string false "Bio"
// @Param profileImage formData file false "Profile image"
// @Success 200 {object} userResponse
// @Failure 400 {object} errorResponse
// @Router /api/user/profile [put]
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	claims, err := sessionClaims(c)
	if err != nil {
		return err
	}

	var upd ports.ProfileUpdate

	if v := strings.TrimSpace(c.FormValue("email")); v != "" {
		upd.Email = &v
	}
	if v := strings.TrimSpace(c.FormValue("age")); v != "" {
		age, convErr := strconv.Atoi(v)
		if convErr != nil || age < 0 || age > 150 {
			return echo.NewHTTPError(http.StatusBadRequest, "age must be a number between 0 and 150")
		}
		upd.Age = &age
	}
	if v, ok := formValue(c, "college"); ok {
		upd.College = &v
	}
	if v, ok := formValue(c, "bio"); ok {
		upd.Bio = &v
	}

	if fh, fhErr := c.FormFile("profileImage"); fhErr == nil && fh != nil {
		staged, accErr := h.store.Accept(fh)
		if accErr != nil {
			return accErr
		}
		// Profile images live directly in the uploads root; the staged file
		// is the stored artifact.
		public := staged.PublicPath()
		upd.ProfileImage = &public
	}

	user, err := h.users.UpdateProfile(c.Request().Context(), claims.UserID, upd)
	if err != nil {
		if upd.ProfileImage != nil {
			h.store.RemoveArtifact(*upd.ProfileImage)
		}
		return err
	}

	return c.JSON(http.StatusOK, toUserResponse(user))
}

// ChangePassword godoc
// @Summary Change the caller's password
// @Description Verifies the current password, then replaces the hash and
// @Description revokes every outstanding session in one store write.
// @Tags user
// @Accept json
// @Produce json
// @Param request body changePasswordRequest true "Password change payload"
// @Success 200 {object} messageResponse
// @Failure 401 {object} errorResponse
// @Router /api/user/change-password [post]
func (h *UserHandler) ChangePassword(c echo.Context) error {
	claims, err := sessionClaims(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.users.ChangePassword(c.Request().Context(), claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}

	h.session.ClearCookie(c)
	return c.JSON(http.StatusOK, messageResponse{Message: "Password changed. Please log in again."})
}

// DeleteAccount godoc
// @Summary Delete the caller's account
// @Description Removes the user, all verification records, and their stored
// @Description artifacts.
// @Tags user
// @Produce json
// @Success 200 {object} messageResponse
// @Failure 401 {object} errorResponse
// @Router /api/user/account [delete]
func (h *UserHandler) DeleteAccount(c echo.Context) error {
	claims, err := sessionClaims(c)
	if err != nil {
		return err
	}

	if err := h.users.DeleteAccount(c.Request().Context(), claims.UserID); err != nil {
		return err
	}

	h.session.ClearCookie(c)
	return c.JSON(http.StatusOK, messageResponse{Message: "Account deleted"})
}

// formValue distinguishes "field absent" from "field present but empty":
// an empty submitted value clears the stored field.
func formValue(c echo.Context, name string) (string, bool) {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		v := c.FormValue(name)
		return v, v != ""
	}
	vals, ok := form.Value[name]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return strings.TrimSpace(vals[0]), true
}
