package player

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureBaseFolderIsIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "picameraVideos")
	for i := 0; i < 2; i++ {
		if err := EnsureBaseFolder(dir); err != nil {
			t.Fatalf("call %d: %v", i+1, err)
		}
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("folder missing: %v", err)
	}
}

func TestEnsureBaseFolderPropagatesOtherErrors(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing", "parent")
	if err := EnsureBaseFolder(dir); err == nil {
		t.Fatal("expected error for missing parent")
	}
}

func TestPaths(t *testing.T) {
	base := "/data/videos"
	cases := map[string]string{
		RecordingPath(base, 1700000000123, "avi"):  "/data/videos/1700000000123_video.avi",
		RecordingPath(base, 1700000000123, ".mp4"): "/data/videos/1700000000123_video.mp4",
		TracePath(base, 42):                        "/data/videos/42_motion.cbor",
		ReportPath(base, 42):                       "/data/videos/42_report.json",
	}
	for got, want := range cases {
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
}
