package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTempPathKeepsBaseName(t *testing.T) {
	dir := t.TempDir()
	p := TempPath(dir, "upload", "../../etc/my clip.webm")

	if filepath.Dir(p) != dir {
		t.Errorf("TempPath escaped dir: %s", p)
	}
	if !strings.HasSuffix(p, "my_clip.webm") {
		t.Errorf("unexpected name %s", p)
	}
	if !strings.HasPrefix(filepath.Base(p), "upload_") {
		t.Errorf("missing prefix in %s", p)
	}
}

func TestMoveAndDeleteFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.wav")
	dst := filepath.Join(dir, "b.wav")
	if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile: %v", err)
	}
	if _, err := os.Stat(dst); err != nil {
		t.Fatalf("destination missing: %v", err)
	}
	if err := DeleteFile(dst); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if err := DeleteFile(dst); err != nil {
		t.Errorf("deleting a missing file should not fail: %v", err)
	}
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	if a == b {
		t.Fatal("ids should be unique")
	}
	if !IsID(a) {
		t.Errorf("%q should parse as uuid", a)
	}
	if IsID("not-an-id") {
		t.Error("garbage should not parse as uuid")
	}
}
