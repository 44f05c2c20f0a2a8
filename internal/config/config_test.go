package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if cfg.Width != 320 || cfg.Height != 256 || cfg.FPS != 30 {
		t.Fatalf("unexpected resolution %dx%d@%v", cfg.Width, cfg.Height, cfg.FPS)
	}
	if cfg.MinFrameSkip != 1 || cfg.MaxFrameSkip != 200 || cfg.MaxSignalLength != 100 {
		t.Fatalf("unexpected skip bounds %+v", cfg)
	}
	if cfg.ReadPolicy != ReadTwice || cfg.QuitKey != 27 {
		t.Fatalf("unexpected loop settings %+v", cfg)
	}
	if cfg.KeyWait() != 30*time.Millisecond || cfg.PollDuration() != 0 {
		t.Fatalf("unexpected durations %v %v", cfg.KeyWait(), cfg.PollDuration())
	}
}

func TestValidateRepairsAndRejects(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width = -1
	cfg.MinFrameSkip = 0
	cfg.MaxFrameSkip = -3
	cfg.PollInterval = -1
	cfg.LogFormat = "xml"
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 320 || cfg.MinFrameSkip != 1 || cfg.MaxFrameSkip != 1 || cfg.PollInterval != 0 || cfg.LogFormat != "text" {
		t.Fatalf("not repaired: %+v", cfg)
	}

	cfg.ReadPolicy = "thrice"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected read policy error")
	}
	cfg.ReadPolicy = ReadOnce
	cfg.Codec = "h264x"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected codec error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestParseMissingConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	if _, err := Parse("test", []string{"-config", path, "-video-file", "/data/file.mp4"}); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestParseWithoutConfigFileUsesDefaults(t *testing.T) {
	cfg, err := Parse("test", []string{"-video-file", "/data/file.mp4"})
	if err != nil {
		t.Fatal(err)
	}
	want := DefaultConfig()
	want.VideoFile = "/data/file.mp4"
	if *cfg != *want {
		t.Fatalf("got %+v", cfg)
	}
}

func TestParseFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "player.json")
	fileCfg := DefaultConfig()
	fileCfg.MaxFrameSkip = 50
	fileCfg.VideoFile = "/data/file.mp4"
	fileCfg.Overlay = true
	if err := fileCfg.Save(path); err != nil {
		t.Fatal(err)
	}

	cfg, err := Parse("test", []string{"-config", path, "-max-skip", "80", "-poll", "0.5"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxFrameSkip != 80 {
		t.Fatalf("flag did not override file: %d", cfg.MaxFrameSkip)
	}
	if cfg.VideoFile != "/data/file.mp4" || !cfg.Overlay {
		t.Fatalf("file values lost: %+v", cfg)
	}
	if cfg.PollDuration() != 500*time.Millisecond {
		t.Fatalf("poll = %v", cfg.PollDuration())
	}
}

func TestParseRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Parse("test", []string{"-config", path}); err == nil {
		t.Fatal("expected decode error")
	}
}
