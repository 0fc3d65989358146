// Package gate fronts every mutating operation with the permission check
// and, in safe mode, a pre-execution checkpoint. No operation effect runs
// unless the gate has allowed its category.
package gate

import (
	"context"
	"fmt"
	"os"

	"github.com/mxtweaks/tweakctl/internal/audit"
	"github.com/mxtweaks/tweakctl/internal/checkpoint"
	"github.com/mxtweaks/tweakctl/internal/model"
	"github.com/mxtweaks/tweakctl/internal/privilege"
)

// State names the phases of a single execute call. Every call starts a
// fresh machine; no state survives between calls except what the
// checkpoint store persists.
type State string

const (
	StateIdle         State = "idle"
	StateChecking     State = "checking_permission"
	StateDenied       State = "denied"
	StateEscalating   State = "escalating"
	StateSnapshotting State = "snapshotting"
	StateExecuting    State = "executing"
	StateSucceeded    State = "succeeded"
	StateFailed       State = "failed"
)

// Config holds the gate's configuration, loaded by the caller.
type Config struct {
	// SafeMode enables automatic pre-operation checkpoints.
	SafeMode bool
	// KeepCheckpoints bounds the store after each snapshot; zero means
	// the retention default.
	KeepCheckpoints int
	// PolicyHash stamps audit entries with the policy table in force.
	PolicyHash string
}

// Gate composes the privilege oracle and the checkpoint store in front of
// operations.
type Gate struct {
	oracle *privilege.Oracle
	store  *checkpoint.Store
	log    *audit.Log // nil disables outcome logging
	cfg    Config
}

// New creates a Gate. The audit log may be nil.
func New(oracle *privilege.Oracle, store *checkpoint.Store, log *audit.Log, cfg Config) *Gate {
	return &Gate{oracle: oracle, store: store, log: log, cfg: cfg}
}

// WithSafeMode returns a copy of the gate with safe mode overridden.
func (g *Gate) WithSafeMode(on bool) *Gate {
	cp := *g
	cp.cfg.SafeMode = on
	return &cp
}

// ExecuteOptions control a single execute call.
type ExecuteOptions struct {
	// Escalate requests a privilege relaunch when the category is not
	// allowed at the current level. Interactive callers set this after
	// prompting the user.
	Escalate bool
}

// Outcome is the terminal report of one execute call.
type Outcome struct {
	RunID        string
	State        State
	Result       model.Result
	CheckpointID string

	// Escalation is set when a relaunch was attempted. When
	// Escalation.Relaunched is true the caller must terminate
	// immediately with Escalation.ExitCode; the elevated process has
	// already done the work.
	Escalation *model.EscalationOutcome
}

// MustTerminate reports whether the process was relaunched elevated and
// nothing further may run in this one.
func (o Outcome) MustTerminate() bool {
	return o.Escalation != nil && o.Escalation.Relaunched
}

// DeniedError carries the remediation hint shown when a category is not
// permitted. It is reported, not fatal; the caller may continue in
// reduced-functionality mode.
type DeniedError struct {
	OperationID string
	Category    model.Category
	Reason      string
	Hint        string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("operation %s denied (%s): %s", e.OperationID, e.Category, e.Reason)
}

// Execute runs the gate state machine for one operation:
// permission check, optional escalation, optional snapshot, then the
// operation's effect exactly once. Terminal states are denied, succeeded,
// and failed.
func (g *Gate) Execute(ctx context.Context, op model.Operation, opts ExecuteOptions) Outcome {
	out := Outcome{RunID: newRunID(), State: StateChecking}

	// Operations that mutate tweakctl's own state would defeat the
	// rollback and audit guarantees; refused at any privilege level.
	if model.IsSelfTargeting(op) {
		out.State = StateDenied
		out.Result = model.Denied("operation targets tweakctl's own state")
		g.record(op, out, string(model.Deny))
		return out
	}

	if !g.oracle.IsAllowed(op.Category) {
		if opts.Escalate {
			out.State = StateEscalating
			esc := g.oracle.RequestEscalation(ctx, string(op.Category))
			out.Escalation = &esc
			if esc.Relaunched {
				// Work happened in the elevated process; map its exit
				// status and stop here.
				if esc.ExitCode == 0 {
					out.State = StateSucceeded
					out.Result = model.Success()
				} else {
					out.State = StateFailed
					out.Result = model.Failure(fmt.Sprintf("elevated process exited %d", esc.ExitCode))
				}
				g.record(op, out, "escalate")
				return out
			}
			out.State = StateDenied
			out.Result = model.Denied(esc.Reason)
			g.record(op, out, "escalate")
			return out
		}

		out.State = StateDenied
		out.Result = model.Denied(g.denialReason(op))
		g.record(op, out, string(model.Deny))
		return out
	}

	if g.cfg.SafeMode && op.Mutating() {
		out.State = StateSnapshotting
		cp, err := g.store.Create("pre_"+op.ID, op.DeclaredPaths)
		if err != nil {
			// Store-level failure: safe mode means no unguarded mutation.
			out.State = StateFailed
			out.Result = model.Failure(fmt.Sprintf("checkpoint store: %v", err))
			g.record(op, out, string(model.Allow))
			return out
		}
		out.CheckpointID = cp.ID
		// Per-file copy failures are best-effort: visible, not blocking.
		for _, rec := range cp.FailedFiles() {
			fmt.Fprintf(os.Stderr, "checkpoint %s: %s %s (%s)\n", cp.ID, rec.Status, rec.Path, rec.Error)
		}
		checkpoint.ApplyRetention(g.store, g.cfg.KeepCheckpoints)
	}

	if ctx.Err() != nil {
		out.State = StateDenied
		out.Result = model.Denied("cancelled")
		g.record(op, out, string(model.Deny))
		return out
	}

	out.State = StateExecuting
	var res model.Result
	if op.Effect == nil {
		res = model.Failure("operation has no effect function")
	} else {
		res = op.Effect()
	}
	res.CheckpointID = out.CheckpointID
	out.Result = res

	if res.Succeeded() {
		out.State = StateSucceeded
	} else {
		out.State = StateFailed
	}
	g.record(op, out, string(model.Allow))
	return out
}

// Denial returns the typed error for a denied outcome, or nil.
func (g *Gate) Denial(op model.Operation, out Outcome) error {
	if out.State != StateDenied {
		return nil
	}
	return &DeniedError{
		OperationID: op.ID,
		Category:    op.Category,
		Reason:      out.Result.Reason,
		Hint:        g.remediationHint(op),
	}
}

func (g *Gate) denialReason(op model.Operation) string {
	return fmt.Sprintf("category %s requires %s, running as %s",
		op.Category, g.oracle.RequiredLevel(op.Category), g.oracle.CurrentLevel())
}

func (g *Gate) remediationHint(op model.Operation) string {
	if privilege.HasGraphicalSession() {
		return "re-run with --escalate, or: sudo tweakctl apply " + op.ID
	}
	return "re-run with: sudo tweakctl apply " + op.ID
}

func (g *Gate) record(op model.Operation, out Outcome, decision string) {
	if g.log == nil {
		return
	}
	err := g.log.Record(audit.Entry{
		RunID:        out.RunID,
		Operation:    audit.EntryOperation{ID: op.ID, Category: string(op.Category)},
		Decision:     decision,
		Status:       string(out.Result.Status),
		Reason:       out.Result.Reason,
		CheckpointID: out.CheckpointID,
		PolicyHash:   g.cfg.PolicyHash,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "audit: %v\n", err)
	}
}
