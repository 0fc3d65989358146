package privilege

import (
	"context"
	"errors"
	"os"
	"os/exec"

	"github.com/mxtweaks/tweakctl/internal/model"
)

// graphicalEnvVars are the environment signals checked for a graphical
// session. pkexec needs one to present its authentication dialog.
var graphicalEnvVars = []string{"DISPLAY", "WAYLAND_DISPLAY"}

// HasGraphicalSession reports whether an elevation dialog can be shown.
func HasGraphicalSession() bool {
	for _, v := range graphicalEnvVars {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

// RequestEscalation relaunches the current executable with its original
// argument vector under the elevation helper and waits for it to finish.
//
// On success the outcome is Relaunched and the caller must terminate
// immediately with outcome.ExitCode: the elevated process has already done
// the work, and nothing in this process may run after it. Helper absent,
// no graphical session, user refusal at the auth dialog, and context
// cancellation all yield a non-relaunched outcome with a reason.
func (o *Oracle) RequestEscalation(ctx context.Context, reason string) model.EscalationOutcome {
	if o.level == model.LevelRoot {
		return model.EscalationDenied("already running as root")
	}
	if !HasGraphicalSession() {
		return model.EscalationDenied("no graphical session for elevation dialog; re-run with sudo")
	}

	helper, err := exec.LookPath(o.Helper)
	if err != nil {
		return model.EscalationDenied("elevation helper " + o.Helper + " not found; re-run with sudo")
	}

	exe, err := os.Executable()
	if err != nil {
		return model.EscalationDenied("cannot resolve executable path: " + err.Error())
	}

	args := append([]string{exe}, os.Args[1:]...)
	cmd := exec.CommandContext(ctx, helper, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err = cmd.Run()
	if ctx.Err() != nil {
		return model.EscalationDenied("cancelled")
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// pkexec exits 126 when the user dismisses the dialog and
			// 127 when authorization is refused.
			code := exitErr.ExitCode()
			if code == 126 || code == 127 {
				return model.EscalationDenied("authorization declined")
			}
			return model.EscalationOutcome{Relaunched: true, ExitCode: code}
		}
		return model.EscalationDenied("elevation helper failed: " + err.Error())
	}

	return model.EscalationOutcome{Relaunched: true, ExitCode: 0}
}
