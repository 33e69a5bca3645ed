package worker

import (
	"strconv"
	"strings"

	"github.com/veriscribe/signature-api/internal/core/domain"
	"github.com/veriscribe/signature-api/internal/core/ports"
)

// rejectionPrefixes maps the worker's structured-rejection line prefixes to
// outcome kinds. New rejection kinds are additive here.
var rejectionPrefixes = []struct {
	prefix string
	kind   ports.WorkerOutcomeKind
}{
	{"INVALID_IMAGE:", ports.OutcomeInvalidImage},
	{"UNCERTAIN:", ports.OutcomeUncertain},
	{"ERROR:", ports.OutcomeWorkerError},
}

// Parse interprets one worker invocation: its stdout and its exit error.
// Only the last non-empty stdout line is authoritative; earlier lines are
// ML-framework noise. The success grammar is
//
//	<Label> with <float>%confidence
//
// where the confidence token tolerates "% confidence", "%confidence" and a
// bare "%". A recognised rejection prefix wins regardless of exit code; an
// unrecognised line or a non-zero exit without one is opaque.
func Parse(stdout string, exitErr error) ports.WorkerOutcome {
	line := lastNonEmptyLine(stdout)

	for _, p := range rejectionPrefixes {
		if strings.HasPrefix(line, p.prefix) {
			return ports.WorkerOutcome{
				Kind:   p.kind,
				Reason: strings.TrimSpace(strings.TrimPrefix(line, p.prefix)),
			}
		}
	}

	if exitErr != nil {
		return unparseable(line)
	}

	labelPart, confPart, found := strings.Cut(line, " with ")
	if !found {
		return unparseable(line)
	}

	label, ok := domain.ParseLabel(labelPart)
	if !ok {
		return unparseable(line)
	}

	conf, ok := parseConfidence(confPart)
	if !ok || conf < 0 || conf > 100 {
		return unparseable(line)
	}

	return ports.WorkerOutcome{
		Kind:       ports.OutcomeSuccess,
		Label:      string(label),
		Confidence: conf,
	}
}

func parseConfidence(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "confidence")
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSpace(s)

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func lastNonEmptyLine(s string) string {
	lines := strings.Split(s, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

func unparseable(line string) ports.WorkerOutcome {
	return ports.WorkerOutcome{
		Kind:   ports.OutcomeUnparseable,
		Reason: line,
	}
}
