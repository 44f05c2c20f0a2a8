package player

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	uuid "github.com/gofrs/uuid/v5"

	"github.com/kmmndr/motion_player/internal/motion"
)

// Session is one recording-plus-playback run.
type Session struct {
	ID      uuid.UUID
	Clock   int64
	Path    string
	Started time.Time

	report *motion.Report
}

func (s *Session) Report() *motion.Report {
	return s.report
}

func RecordingPath(base string, clock int64, ext string) string {
	return filepath.Join(base, fmt.Sprintf("%d_video.%s", clock, strings.TrimPrefix(ext, ".")))
}

func TracePath(base string, clock int64) string {
	return filepath.Join(base, fmt.Sprintf("%d_motion.cbor", clock))
}

func ReportPath(base string, clock int64) string {
	return filepath.Join(base, fmt.Sprintf("%d_report.json", clock))
}

// EnsureBaseFolder creates path unless it already exists. Parents are not created.
func EnsureBaseFolder(path string) error {
	if err := os.Mkdir(path, 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
		return err
	}
	return nil
}
