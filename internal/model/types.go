package model

// PrivilegeLevel is the process privilege tier, fixed at startup.
type PrivilegeLevel int

const (
	LevelUser PrivilegeLevel = iota
	LevelRoot
)

func (l PrivilegeLevel) String() string {
	if l == LevelRoot {
		return "root"
	}
	return "user"
}

// Category classifies an operation for the policy table.
type Category string

const (
	CatSystemCleanup       Category = "system_cleanup"
	CatPerformance         Category = "performance"
	CatNetworkOptimization Category = "network_optimization"
	CatSecurityHardening   Category = "security_hardening"
	CatAppearance          Category = "appearance"
	CatInformationDisplay  Category = "information_display"
	CatBackup              Category = "backup"
)

// Decision is the gate's permission verdict for an execute call.
type Decision string

const (
	Allow    Decision = "allow"
	Deny     Decision = "deny"
	Escalate Decision = "escalate"
)

// Status is the terminal outcome of an execute call.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusDenied    Status = "denied"
)

// Result is produced once per execute call and never mutated.
type Result struct {
	Status       Status `json:"status"`
	Reason       string `json:"reason,omitempty"`
	CheckpointID string `json:"checkpoint_id,omitempty"`
}

// Succeeded reports whether the operation's effect completed successfully.
func (r Result) Succeeded() bool { return r.Status == StatusSucceeded }

// Success returns a successful Result.
func Success() Result { return Result{Status: StatusSucceeded} }

// Failure returns a failed Result with a reason.
func Failure(reason string) Result { return Result{Status: StatusFailed, Reason: reason} }

// Denied returns a denied Result with a reason.
func Denied(reason string) Result { return Result{Status: StatusDenied, Reason: reason} }

// Operation is a single tweak/action consumed by the gate. Immutable once
// registered. DeclaredPaths lists the files its effect may mutate; the gate
// snapshots them before execution when safe mode is on.
type Operation struct {
	ID            string
	Name          string
	Category      Category
	DeclaredPaths []string
	Effect        func() Result
}

// Mutating reports whether the operation declares any paths it will touch.
func (op Operation) Mutating() bool { return len(op.DeclaredPaths) > 0 }

// EscalationOutcome is the result of a privilege escalation attempt.
// Relaunched means the elevated process ran to completion and the caller
// must terminate immediately with ExitCode; no further work may happen in
// the original process.
type EscalationOutcome struct {
	Relaunched bool
	ExitCode   int
	Reason     string
}

// EscalationDenied returns a non-relaunched outcome with a reason.
func EscalationDenied(reason string) EscalationOutcome {
	return EscalationOutcome{Reason: reason}
}
