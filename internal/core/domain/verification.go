package domain

import (
	"strings"
	"time"
)

// Label is the binary outcome of a signature classification.
type Label string

const (
	LabelGenuine Label = "Genuine"
	LabelForged  Label = "Forged"
)

// ParseLabel normalises a worker-reported label into the two-valued taxonomy.
// Anything that is not recognisably genuine or forged is rejected rather than
// guessed at.
func ParseLabel(s string) (Label, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "genuine", "authentic", "real":
		return LabelGenuine, true
	case "forged", "forgery", "fake":
		return LabelForged, true
	}
	return "", false
}

// VerificationRecord is the immutable outcome of one classification attempt.
// ImagePath is empty when artifact retention failed or the caller was
// anonymous; it is also blanked at read time when the file has since gone
// missing on disk.
type VerificationRecord struct {
	ID          string    `json:"id"`
	UserID      string    `json:"-"`
	FileName    string    `json:"fileName"`
	ImagePath   string    `json:"imagePath,omitempty"`
	VerifiedFor string    `json:"verifiedFor"`
	Label       Label     `json:"label"`
	Confidence  float64   `json:"confidence"`
	Timestamp   time.Time `json:"timestamp"`
}

// HistorySummary aggregates a user's entire verification history, independent
// of any list filters or pagination.
type HistorySummary struct {
	Total         int64   `json:"total"`
	Genuine       int64   `json:"genuine"`
	Forged        int64   `json:"forged"`
	AvgConfidence float64 `json:"avgConfidence"`
	SuccessRate   float64 `json:"successRate"`
}

// GlobalStats is the public, unscoped aggregate across all owners.
type GlobalStats struct {
	TotalVerifications int64 `json:"totalVerifications"`
	TotalUsers         int64 `json:"totalUsers"`
	GenuineCount       int64 `json:"genuineCount"`
	ForgedCount        int64 `json:"forgedCount"`
}
