// Package tweaks provides the built-in operation catalog and the bounded
// command runner its effects shell out through. Individual tweak bodies
// are plain invocations of standard system tools; all safety logic lives
// in the gate.
package tweaks

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/mxtweaks/tweakctl/internal/model"
)

// DefaultTimeout bounds how long a single tweak command may run. Package
// installs can be slow; anything past this is treated as failed.
const DefaultTimeout = 5 * time.Minute

// Runner executes external commands with a bounded wait and maps their
// exit status to a Result.
type Runner struct {
	Timeout time.Duration
}

// NewRunner returns a Runner with the default timeout.
func NewRunner() Runner {
	return Runner{Timeout: DefaultTimeout}
}

// Run executes one command and waits for it. A non-zero exit becomes a
// Failure carrying the exit code and a stderr excerpt; exceeding the
// timeout becomes a Failure with a timeout reason.
func (r Runner) Run(name string, args ...string) model.Result {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return model.Failure(fmt.Sprintf("%s timed out after %s", name, timeout))
	}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return model.Failure(fmt.Sprintf("%s exited %d: %s",
				name, exitErr.ExitCode(), stderrExcerpt(stderr.String())))
		}
		return model.Failure(fmt.Sprintf("%s: %v", name, err))
	}
	return model.Success()
}

// Chain runs commands in order, stopping at the first failure.
func (r Runner) Chain(cmds [][]string) model.Result {
	for _, c := range cmds {
		if len(c) == 0 {
			continue
		}
		if res := r.Run(c[0], c[1:]...); !res.Succeeded() {
			return res
		}
	}
	return model.Success()
}

// Command returns an effect function running a single command.
func (r Runner) Command(name string, args ...string) func() model.Result {
	return func() model.Result { return r.Run(name, args...) }
}

func stderrExcerpt(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "no stderr output"
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
