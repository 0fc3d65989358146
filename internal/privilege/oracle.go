// Package privilege decides whether operation categories are permitted at
// the current privilege level, and can relaunch the process under a
// polkit-style elevation helper when they are not.
package privilege

import (
	"os"

	"github.com/mxtweaks/tweakctl/internal/model"
	"github.com/mxtweaks/tweakctl/internal/policy"
)

// Oracle answers permission queries against the policy table.
// The privilege level is derived from the effective UID at construction
// and never changes for the process lifetime.
type Oracle struct {
	level model.PrivilegeLevel
	table *policy.Table

	// Helper is the elevation helper binary. Overridable for tests.
	Helper string
}

// New creates an Oracle with the level derived from the effective UID.
func New(table *policy.Table) *Oracle {
	level := model.LevelUser
	if os.Geteuid() == 0 {
		level = model.LevelRoot
	}
	return NewWithLevel(level, table)
}

// NewWithLevel creates an Oracle with an explicit level. Used by tests and
// by callers that already know the process privilege.
func NewWithLevel(level model.PrivilegeLevel, table *policy.Table) *Oracle {
	return &Oracle{
		level:  level,
		table:  table,
		Helper: "pkexec",
	}
}

// CurrentLevel returns the privilege level fixed at construction.
func (o *Oracle) CurrentLevel() model.PrivilegeLevel { return o.level }

// IsAllowed reports whether the category is permitted at the current level.
// Categories missing from the table require root.
func (o *Oracle) IsAllowed(cat model.Category) bool {
	return o.level >= o.table.RequiredLevel(cat)
}

// RequiredLevel exposes the table lookup for callers that report remediation
// hints.
func (o *Oracle) RequiredLevel(cat model.Category) model.PrivilegeLevel {
	return o.table.RequiredLevel(cat)
}
