package checkpoint

import (
	"fmt"
	"os"
)

// DefaultKeep is the number of checkpoints retained when no explicit
// configuration is present.
const DefaultKeep = 10

// ApplyRetention prunes the store down to keep checkpoints. It is invoked
// as a hygiene step after every successful checkpoint creation; failures
// are reported to stderr and never propagate to the triggering operation.
func ApplyRetention(s *Store, keep int) {
	if keep <= 0 {
		keep = DefaultKeep
	}
	removed, err := s.Prune(keep)
	if err != nil {
		fmt.Fprintf(os.Stderr, "checkpoint retention: %v\n", err)
		return
	}
	for _, id := range removed {
		fmt.Fprintf(os.Stderr, "checkpoint retention: removed %s\n", id)
	}
}
