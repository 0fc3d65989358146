package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
)

// VerifyIssue describes one archived file that failed verification.
type VerifyIssue struct {
	Path   string `json:"path"`
	Detail string `json:"detail"`
}

// VerifyReport is the outcome of checking a checkpoint's archive against
// its metadata record.
type VerifyReport struct {
	CheckpointID string        `json:"checkpoint_id"`
	Checked      int           `json:"checked"`
	Issues       []VerifyIssue `json:"issues,omitempty"`
}

// OK reports whether every archived file matched its recorded checksum.
func (r VerifyReport) OK() bool { return len(r.Issues) == 0 }

// Verify recomputes the checksum of every archived file and compares it to
// the metadata record. A checkpoint that fails verification can still be
// restored; the report tells the operator which files not to trust.
func (s *Store) Verify(id string) (*VerifyReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if cp.NoMetadata {
		return nil, fmt.Errorf("checkpoint %q has no metadata record", id)
	}

	report := &VerifyReport{CheckpointID: id}
	for _, rec := range cp.StoredFiles() {
		report.Checked++
		archived := filepath.Join(cp.Dir, rec.ArchivedAs)

		if _, err := os.Stat(archived); err != nil {
			report.Issues = append(report.Issues, VerifyIssue{
				Path:   rec.Path,
				Detail: "archived copy missing",
			})
			continue
		}
		if rec.SHA256 == "" {
			// Metadata from a version that predates checksums.
			continue
		}
		sum, err := hashFile(archived)
		if err != nil {
			report.Issues = append(report.Issues, VerifyIssue{
				Path:   rec.Path,
				Detail: fmt.Sprintf("cannot hash archived copy: %v", err),
			})
			continue
		}
		if sum != rec.SHA256 {
			report.Issues = append(report.Issues, VerifyIssue{
				Path:   rec.Path,
				Detail: fmt.Sprintf("checksum mismatch: recorded %s, actual %s", rec.SHA256, sum),
			})
		}
	}
	return report, nil
}
