// Package worker invokes the external classification process and interprets
// its stdout/exit-code contract. The worker is a black box: two positional
// arguments in (image path, model path), one authoritative output line back.
package worker

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/veriscribe/signature-api/internal/core/domain"
	"github.com/veriscribe/signature-api/internal/core/ports"
)

const modelExt = ".h5"

// Runner spawns the classifier subprocess against reference-identity model
// artifacts stored under modelsDir as <identity>.h5.
type Runner struct {
	command   string
	script    string
	modelsDir string
	log       zerolog.Logger
}

func NewRunner(command, script, modelsDir string, log zerolog.Logger) *Runner {
	return &Runner{
		command:   command,
		script:    script,
		modelsDir: modelsDir,
		log:       log,
	}
}

// Resolve maps a reference identity to its model artifact path. Unknown or
// missing-on-disk identities fail with the list of identities that would
// have worked.
func (r *Runner) Resolve(identity string) (string, error) {
	id := strings.ToLower(strings.TrimSpace(identity))
	if id == "" {
		return "", &domain.ModelNotFoundError{Identity: identity, Available: r.Available()}
	}

	path := filepath.Join(r.modelsDir, id+modelExt)
	if _, err := os.Stat(path); err != nil {
		return "", &domain.ModelNotFoundError{Identity: id, Available: r.Available()}
	}
	return path, nil
}

// Available lists reference identities whose model artifact exists on disk.
func (r *Runner) Available() []string {
	entries, err := os.ReadDir(r.modelsDir)
	if err != nil {
		r.log.Warn().Err(err).Str("dir", r.modelsDir).Msg("cannot list model artifacts")
		return nil
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), modelExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), modelExt))
	}
	sort.Strings(names)
	return names
}

// Run spawns the worker and blocks until it exits, then parses its output.
// The subprocess is deliberately not bound to ctx: a caller disconnect must
// not kill a worker mid-read of a shared model artifact, so the process
// always runs to completion and an abandoned result is discarded by the
// caller.
func (r *Runner) Run(_ context.Context, imagePath, modelPath string) ports.WorkerOutcome {
	cmd := exec.Command(r.command, r.script, imagePath, modelPath)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	outcome := Parse(stdout.String(), runErr)

	switch outcome.Kind {
	case ports.OutcomeUnparseable:
		// Raw diagnostics are for the log only, never the response.
		r.log.Error().
			Err(runErr).
			Str("last_line", outcome.Reason).
			Str("stderr", stderr.String()).
			Msg("worker produced no usable result")
	case ports.OutcomeWorkerError:
		r.log.Error().
			Str("reason", outcome.Reason).
			Str("stderr", stderr.String()).
			Msg("worker reported an error")
	}

	return outcome
}
