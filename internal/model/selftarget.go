package model

import "strings"

// selfTargetPatterns are path substrings that indicate an operation
// mutates tweakctl's own state. A tweak that rewrites the audit log or
// the checkpoint store would defeat the rollback guarantee, so these are
// refused regardless of privilege level.
var selfTargetPatterns = []string{
	"/tweakctl/",
	"tweakctl.yaml",
	"audit.jsonl",
	"/checkpoints/",
}

// IsSelfTargeting returns true if the operation declares a path inside
// tweakctl's own state. Fail-closed: matching is intentionally broad.
func IsSelfTargeting(op Operation) bool {
	for _, p := range op.DeclaredPaths {
		lower := strings.ToLower(p)
		for _, pat := range selfTargetPatterns {
			if strings.Contains(lower, pat) {
				return true
			}
		}
	}
	return false
}
