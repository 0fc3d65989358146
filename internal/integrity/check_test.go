package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func selfHash(t *testing.T) string {
	t.Helper()
	exe, err := os.Executable()
	if err != nil {
		t.Fatalf("os.Executable: %v", err)
	}
	data, err := os.ReadFile(exe)
	if err != nil {
		t.Fatalf("read binary: %v", err)
	}
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func TestVerifyDevBuildSkips(t *testing.T) {
	oldExpected := ExpectedHash
	oldPaths := ChecksumPaths
	ExpectedHash = ""
	ChecksumPaths = []string{"/nonexistent/binary.sha256"}
	defer func() {
		ExpectedHash = oldExpected
		ChecksumPaths = oldPaths
	}()

	if err := Verify(); err != nil {
		t.Errorf("dev build should skip verification, got %v", err)
	}
}

func TestVerifyMatch(t *testing.T) {
	oldExpected := ExpectedHash
	ExpectedHash = selfHash(t)
	defer func() { ExpectedHash = oldExpected }()

	if err := Verify(); err != nil {
		t.Errorf("matching hash should verify, got %v", err)
	}
}

func TestVerifyMismatchWritesTamperEvent(t *testing.T) {
	tmpDir := t.TempDir()

	oldExpected := ExpectedHash
	oldLogDir := TamperLogDir
	ExpectedHash = strings.Repeat("a", 64)
	TamperLogDir = tmpDir
	defer func() {
		ExpectedHash = oldExpected
		TamperLogDir = oldLogDir
	}()

	err := Verify()
	if err == nil {
		t.Fatal("expected mismatch error")
	}
	if !strings.Contains(err.Error(), "checksum mismatch") {
		t.Errorf("unexpected error: %v", err)
	}

	data, readErr := os.ReadFile(filepath.Join(tmpDir, "tamper.jsonl"))
	if readErr != nil {
		t.Fatalf("tamper event not written: %v", readErr)
	}
	if !strings.Contains(string(data), "binary_tamper") {
		t.Errorf("tamper event missing type: %s", data)
	}
}

func TestVerifyChecksumFileFallback(t *testing.T) {
	tmpDir := t.TempDir()
	checksumPath := filepath.Join(tmpDir, "binary.sha256")
	if err := os.WriteFile(checksumPath, []byte(selfHash(t)+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	oldExpected := ExpectedHash
	oldPaths := ChecksumPaths
	ExpectedHash = ""
	ChecksumPaths = []string{checksumPath}
	defer func() {
		ExpectedHash = oldExpected
		ChecksumPaths = oldPaths
	}()

	if err := Verify(); err != nil {
		t.Errorf("checksum file fallback should verify, got %v", err)
	}
}

func TestLoadChecksumFileRejectsGarbage(t *testing.T) {
	tmpDir := t.TempDir()
	checksumPath := filepath.Join(tmpDir, "binary.sha256")
	if err := os.WriteFile(checksumPath, []byte("not a hash\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	oldPaths := ChecksumPaths
	ChecksumPaths = []string{checksumPath}
	defer func() { ChecksumPaths = oldPaths }()

	if got := loadChecksumFile(); got != "" {
		t.Errorf("garbage checksum accepted: %q", got)
	}
}

func TestHashSelf(t *testing.T) {
	got, err := HashSelf()
	if err != nil {
		t.Fatalf("HashSelf: %v", err)
	}
	if got != selfHash(t) {
		t.Error("HashSelf disagrees with direct hash of the binary")
	}
}
