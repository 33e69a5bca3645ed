package domain

import "time"

// User models an account that owns verification history.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Age          int       `json:"age,omitempty"`
	College      string    `json:"college,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	ProfileImage string    `json:"profile_image,omitempty"`
	SessionEpoch *int64    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// EpochValue coalesces a possibly-absent session epoch to zero. User documents
// written before the epoch mechanism existed carry no epoch field, and tokens
// minted from them carry no epoch claim; both sides must normalise the same
// way or every legacy session would be rejected on its first request.
func EpochValue(epoch *int64) int64 {
	if epoch == nil {
		return 0
	}
	return *epoch
}
