// Package checkpoint persists restorable snapshots of configuration files.
// Each checkpoint is a timestamped directory holding copies of the files it
// guards plus an immutable metadata record, readable across process
// restarts.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

// timestampLayout is the sortable suffix appended to checkpoint names.
const timestampLayout = "20060102_150405"

// metadataFile is the per-checkpoint metadata record name.
const metadataFile = "metadata.json"

// validName matches checkpoint base names that cannot traverse out of the
// store directory.
var validName = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// FileStatus records the per-file outcome of a copy attempt.
type FileStatus string

const (
	FileCopied  FileStatus = "copied"
	FileSkipped FileStatus = "skipped"
	FileFailed  FileStatus = "failed"
)

// FileRecord is the outcome for a single declared path.
type FileRecord struct {
	Path       string     `json:"path"`
	ArchivedAs string     `json:"archived_as,omitempty"`
	Status     FileStatus `json:"status"`
	Error      string     `json:"error,omitempty"`
	SizeBytes  int64      `json:"size_bytes,omitempty"`
	SHA256     string     `json:"sha256,omitempty"`
}

// Metadata is the immutable record written beside the copies. All fields
// are structs and strings to keep json.Marshal field order deterministic.
type Metadata struct {
	Name      string       `json:"name"`
	Timestamp string       `json:"timestamp"`
	Files     []string     `json:"files"`
	Records   []FileRecord `json:"records"`
	CreatedAt string       `json:"created_at"`
	SizeBytes int64        `json:"size_bytes"`
}

// Checkpoint is one stored snapshot. ID is the directory name,
// "<name>_<timestamp>", which sorts with creation order.
type Checkpoint struct {
	ID         string   `json:"id"`
	Dir        string   `json:"dir"`
	Meta       Metadata `json:"metadata"`
	NoMetadata bool     `json:"no_metadata,omitempty"`
}

// CreatedAt parses the metadata creation time. Checkpoints without
// metadata report the zero time; List substitutes directory modtime.
func (c Checkpoint) CreatedAt() time.Time {
	t, err := time.Parse(time.RFC3339Nano, c.Meta.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// StoredFiles returns the records that were actually copied.
func (c Checkpoint) StoredFiles() []FileRecord {
	var out []FileRecord
	for _, r := range c.Meta.Records {
		if r.Status == FileCopied {
			out = append(out, r)
		}
	}
	return out
}

// FailedFiles returns the records that were skipped or failed.
func (c Checkpoint) FailedFiles() []FileRecord {
	var out []FileRecord
	for _, r := range c.Meta.Records {
		if r.Status != FileCopied {
			out = append(out, r)
		}
	}
	return out
}

// Store manages checkpoint directories under a single root. The root is
// passed in explicitly; there is no ambient global location.
type Store struct {
	dir string
	mu  sync.Mutex

	// now is the clock used for timestamp suffixes. Overridable for tests.
	now func() time.Time
}

// NewStore creates a Store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create checkpoint directory: %w", err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// DefaultDir returns the default checkpoint store location.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "tweakctl-checkpoints")
	}
	return filepath.Join(home, ".config", "tweakctl", "checkpoints")
}

// Dir returns the store root.
func (s *Store) Dir() string { return s.dir }

// Create snapshots the given paths into a fresh checkpoint directory.
// Paths that do not exist are recorded as skipped; copy errors are recorded
// as failed. Neither aborts the call. Failure to create the checkpoint
// directory itself is fatal and returns an error with no checkpoint.
func (s *Store) Create(name string, paths []string) (*Checkpoint, error) {
	if err := validateName(name); err != nil {
		return nil, fmt.Errorf("invalid checkpoint name: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	created := s.now().UTC()
	id := name + "_" + created.Format(timestampLayout)
	dir := filepath.Join(s.dir, id)

	// Same name within the same second: suffix a counter so the new
	// checkpoint never overwrites the old one.
	for n := 2; ; n++ {
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			break
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("cannot create checkpoint %s: %w", id, err)
		}
		id = fmt.Sprintf("%s_%s_%d", name, created.Format(timestampLayout), n)
		dir = filepath.Join(s.dir, id)
	}

	meta := Metadata{
		Name:      name,
		Timestamp: created.Format(timestampLayout),
		Files:     append([]string(nil), paths...),
		CreatedAt: created.Format(time.RFC3339Nano),
	}

	for _, src := range paths {
		rec := FileRecord{Path: src}
		info, err := os.Stat(src)
		switch {
		case os.IsNotExist(err):
			rec.Status = FileSkipped
			rec.Error = "source does not exist"
		case err != nil:
			rec.Status = FileFailed
			rec.Error = err.Error()
		case info.IsDir():
			rec.Status = FileSkipped
			rec.Error = "source is a directory"
		default:
			rec.ArchivedAs = archiveName(src, meta.Records)
			dst := filepath.Join(dir, rec.ArchivedAs)
			if err := copyFile(src, dst); err != nil {
				rec.Status = FileFailed
				rec.Error = err.Error()
				rec.ArchivedAs = ""
			} else {
				rec.Status = FileCopied
				rec.SizeBytes = info.Size()
				if sum, err := hashFile(dst); err == nil {
					rec.SHA256 = sum
				}
				meta.SizeBytes += info.Size()
			}
		}
		meta.Records = append(meta.Records, rec)
	}

	if err := writeMetadata(filepath.Join(dir, metadataFile), meta); err != nil {
		return nil, fmt.Errorf("cannot write checkpoint metadata: %w", err)
	}

	return &Checkpoint{ID: id, Dir: dir, Meta: meta}, nil
}

// List enumerates all checkpoints, newest first. Directories without a
// readable metadata record are still reported, marked NoMetadata and
// ordered by directory modtime.
func (s *Store) List() ([]Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list()
}

func (s *Store) list() ([]Checkpoint, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot read checkpoint directory: %w", err)
	}

	type sortable struct {
		cp Checkpoint
		at time.Time
	}
	var found []sortable

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(s.dir, e.Name())
		cp := Checkpoint{ID: e.Name(), Dir: dir}

		meta, err := readMetadata(filepath.Join(dir, metadataFile))
		if err != nil {
			cp.NoMetadata = true
			at := time.Time{}
			if info, err := e.Info(); err == nil {
				at = info.ModTime()
			}
			found = append(found, sortable{cp: cp, at: at})
			continue
		}
		cp.Meta = *meta
		found = append(found, sortable{cp: cp, at: cp.CreatedAt()})
	}

	sort.Slice(found, func(i, j int) bool {
		if !found[i].at.Equal(found[j].at) {
			return found[i].at.After(found[j].at)
		}
		return found[i].cp.ID > found[j].cp.ID
	})

	out := make([]Checkpoint, len(found))
	for i, f := range found {
		out[i] = f.cp
	}
	return out, nil
}

// Get returns a single checkpoint by ID.
func (s *Store) Get(id string) (*Checkpoint, error) {
	if err := validateName(id); err != nil {
		return nil, fmt.Errorf("invalid checkpoint id: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.dir, id)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("checkpoint %q not found", id)
	}

	cp := &Checkpoint{ID: id, Dir: dir}
	meta, err := readMetadata(filepath.Join(dir, metadataFile))
	if err != nil {
		cp.NoMetadata = true
		return cp, nil
	}
	cp.Meta = *meta
	return cp, nil
}

// RestoreReport collects per-file outcomes of a restore call.
type RestoreReport struct {
	CheckpointID string       `json:"checkpoint_id"`
	Restored     []string     `json:"restored"`
	Failures     []FileRecord `json:"failures,omitempty"`
}

// Restored reports whether at least one file was copied back.
func (r RestoreReport) AnyRestored() bool { return len(r.Restored) > 0 }

// Restore copies every stored file back over its original path.
// Per-file failures are collected and do not stop the remaining files;
// already-restored files are never rolled back. The error is non-nil only
// when the checkpoint itself is unusable (missing or without metadata).
func (s *Store) Restore(id string) (*RestoreReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if cp.NoMetadata {
		return nil, fmt.Errorf("checkpoint %q has no metadata record", id)
	}

	report := &RestoreReport{CheckpointID: id}
	for _, rec := range cp.StoredFiles() {
		src := filepath.Join(cp.Dir, rec.ArchivedAs)
		if err := copyFile(src, rec.Path); err != nil {
			report.Failures = append(report.Failures, FileRecord{
				Path:   rec.Path,
				Status: FileFailed,
				Error:  err.Error(),
			})
			continue
		}
		report.Restored = append(report.Restored, rec.Path)
	}
	return report, nil
}

func (s *Store) get(id string) (*Checkpoint, error) {
	if err := validateName(id); err != nil {
		return nil, fmt.Errorf("invalid checkpoint id: %w", err)
	}
	dir := filepath.Join(s.dir, id)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("checkpoint %q not found", id)
	}
	cp := &Checkpoint{ID: id, Dir: dir}
	meta, err := readMetadata(filepath.Join(dir, metadataFile))
	if err != nil {
		cp.NoMetadata = true
		return cp, nil
	}
	cp.Meta = *meta
	return cp, nil
}

// Prune deletes all but the keep most recent checkpoints, physically
// removing their directories. Returns the IDs removed.
func (s *Store) Prune(keep int) ([]string, error) {
	if keep < 0 {
		keep = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.list()
	if err != nil {
		return nil, err
	}
	if len(all) <= keep {
		return nil, nil
	}

	var removed []string
	for _, cp := range all[keep:] {
		if err := os.RemoveAll(cp.Dir); err != nil {
			return removed, fmt.Errorf("cannot remove checkpoint %s: %w", cp.ID, err)
		}
		removed = append(removed, cp.ID)
	}
	return removed, nil
}

// archiveName picks the destination filename for src, disambiguating
// basename collisions between declared paths (e.g. two sysctl.conf files).
func archiveName(src string, existing []FileRecord) string {
	base := filepath.Base(src)
	taken := func(name string) bool {
		if name == metadataFile {
			return true
		}
		for _, r := range existing {
			if r.ArchivedAs == name {
				return true
			}
		}
		return false
	}
	if !taken(base) {
		return base
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, n, ext)
		if !taken(candidate) {
			return candidate
		}
	}
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if strings.Contains(name, "..") {
		return fmt.Errorf("name must not contain '..'")
	}
	if !validName.MatchString(name) {
		return fmt.Errorf("name contains invalid characters: only alphanumeric, dash, underscore, and dot are allowed")
	}
	return nil
}

func readMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// writeMetadata writes the record atomically so a crash mid-write never
// leaves a truncated metadata.json behind.
func writeMetadata(path string, m Metadata) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
