package worker

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/veriscribe/signature-api/internal/core/ports"
)

func TestParse_SuccessGrammar(t *testing.T) {
	tests := []struct {
		name      string
		stdout    string
		wantLabel string
		wantConf  float64
	}{
		{"canonical", "Genuine with 98.73%confidence", "Genuine", 98.73},
		{"space before confidence", "Forged with 51.2% confidence", "Forged", 51.2},
		{"bare percent", "Genuine with 76%", "Genuine", 76},
		{"integer confidence", "Forged with 100%confidence", "Forged", 100},
		{"zero confidence", "Forged with 0%confidence", "Forged", 0},
		{"lowercase label", "genuine with 88.1%confidence", "Genuine", 88.1},
		{"label synonym", "Authentic with 90%confidence", "Genuine", 90},
		{"forgery synonym", "forgery with 66.6% confidence", "Forged", 66.6},
		{"framework noise above", "Using TensorFlow backend\n2026-01-01 loading model\nGenuine with 95%confidence\n", "Genuine", 95},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.stdout, nil)
			assert.Equal(t, ports.OutcomeSuccess, got.Kind)
			assert.Equal(t, tt.wantLabel, got.Label)
			assert.InDelta(t, tt.wantConf, got.Confidence, 1e-9)
		})
	}
}

func TestParse_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		stdout     string
		exitErr    error
		wantKind   ports.WorkerOutcomeKind
		wantReason string
	}{
		{"invalid image", "INVALID_IMAGE: no signature-like contours found", nil, ports.OutcomeInvalidImage, "no signature-like contours found"},
		{"uncertain", "UNCERTAIN: confidence 52.1 below floor", nil, ports.OutcomeUncertain, "confidence 52.1 below floor"},
		{"worker error", "ERROR: model deserialisation failed", nil, ports.OutcomeWorkerError, "model deserialisation failed"},
		// A recognised prefix wins even when the process exited non-zero.
		{"rejection with non-zero exit", "INVALID_IMAGE: truncated file", errors.New("exit status 1"), ports.OutcomeInvalidImage, "truncated file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.stdout, tt.exitErr)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantReason, got.Reason)
		})
	}
}

func TestParse_Unparseable(t *testing.T) {
	tests := []struct {
		name    string
		stdout  string
		exitErr error
	}{
		{"empty output", "", nil},
		{"garbage line", "Segmentation fault (core dumped)", nil},
		{"unknown label", "Maybe with 80%confidence", nil},
		{"missing with", "Genuine 80%confidence", nil},
		{"non-numeric confidence", "Genuine with lots%confidence", nil},
		{"negative confidence", "Genuine with -3%confidence", nil},
		{"confidence above 100", "Genuine with 150%confidence", nil},
		{"clean line but crashed", "Genuine with 90%confidence", errors.New("exit status 137")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.stdout, tt.exitErr)
			assert.Equal(t, ports.OutcomeUnparseable, got.Kind)
		})
	}
}

func TestParse_ReasonNeverLeaksIntoSuccess(t *testing.T) {
	got := Parse("Genuine with 95%confidence", nil)
	assert.Empty(t, got.Reason)
}
