// Package trace stores per-iteration motion samples next to a recording.
//
// A trace file starts with an 8-byte magic, followed by records of
// [8-byte little-endian unix nanos][4-byte little-endian length][CBOR payload].
// The first record is a Header, every following record a motion.Sample.
package trace

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/kmmndr/motion_player/internal/motion"
)

const Magic = "MOTRACE1"

var (
	ErrBadMagic  = errors.New("not a motion trace")
	ErrTruncated = errors.New("motion trace is truncated")
)

type Header struct {
	Session      string `cbor:"session"`
	Clock        int64  `cbor:"clock"`
	Width        int    `cbor:"width"`
	Height       int    `cbor:"height"`
	MaxFrameSkip int    `cbor:"max_frame_skip"`
	ReadPolicy   string `cbor:"read_policy"`
}

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}
}

type Writer struct {
	mu  sync.Mutex
	f   *os.File
	w   *bufio.Writer
	now func() time.Time
}

func Create(path string, header Header) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := &Writer{f: f, w: bufio.NewWriterSize(f, 64*1024), now: time.Now}
	if _, err := w.w.WriteString(Magic); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := w.record(header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write trace header: %w", err)
	}
	return w, nil
}

func (w *Writer) Observe(s motion.Sample) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.record(s)
}

func (w *Writer) record(v any) error {
	if w.w == nil {
		return fmt.Errorf("trace writer is closed")
	}
	payload, err := encMode.Marshal(v)
	if err != nil {
		return err
	}
	var header [12]byte
	binary.LittleEndian.PutUint64(header[:8], uint64(w.now().UnixNano()))
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(payload)))
	if _, err := w.w.Write(header[:]); err != nil {
		return err
	}
	if _, err := w.w.Write(payload); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return nil
	}
	err := w.w.Flush()
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	w.w = nil
	return err
}

type Record struct {
	Written time.Time
	Sample  motion.Sample
}

type Reader struct {
	r      *bufio.Reader
	c      io.Closer
	header Header
}

func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	r.c = f
	return r, nil
}

// NewReader checks the magic and decodes the header.
func NewReader(src io.Reader) (*Reader, error) {
	r := &Reader{r: bufio.NewReader(src)}

	magic := make([]byte, len(Magic))
	if _, err := io.ReadFull(r.r, magic); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if string(magic) != Magic {
		return nil, fmt.Errorf("%w: magic %q", ErrBadMagic, string(magic))
	}

	_, payload, err := r.next()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if err := cbor.Unmarshal(payload, &r.header); err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}
	return r, nil
}

func (r *Reader) Header() Header {
	return r.header
}

// Next returns io.EOF once every record has been read, and ErrTruncated
// when the file ends inside a record.
func (r *Reader) Next() (Record, error) {
	ts, payload, err := r.next()
	if err != nil {
		return Record{}, err
	}
	rec := Record{Written: time.Unix(0, ts)}
	if err := cbor.Unmarshal(payload, &rec.Sample); err != nil {
		return Record{}, fmt.Errorf("decode sample: %w", err)
	}
	return rec, nil
}

func (r *Reader) next() (int64, []byte, error) {
	var meta [12]byte
	if _, err := io.ReadFull(r.r, meta[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, nil, fmt.Errorf("%w: record header", ErrTruncated)
		}
		return 0, nil, err
	}
	ts := int64(binary.LittleEndian.Uint64(meta[:8]))
	size := binary.LittleEndian.Uint32(meta[8:12])
	payload := make([]byte, size)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, nil, fmt.Errorf("%w: %d byte payload", ErrTruncated, size)
		}
		return 0, nil, fmt.Errorf("read payload: %w", err)
	}
	return ts, payload, nil
}

func (r *Reader) Close() error {
	if r.c == nil {
		return nil
	}
	return r.c.Close()
}
