package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"
)

const (
	ReadOnce  = "once"
	ReadTwice = "twice"
)

// Config holds runtime configuration for the camera, the playback loop and
// its outputs. It may be loaded from a JSON file and overridden by flags.
type Config struct {
	BaseFolder   string `json:"base_folder"`
	VideoFile    string `json:"video_file"`
	CameraDevice string `json:"camera_device"`

	Width  int     `json:"width"`
	Height int     `json:"height"`
	FPS    float64 `json:"fps"`

	// MaxSignalLength bounds the sample history served by the telemetry monitor.
	MaxSignalLength int `json:"max_signal_length"`

	MinFrameSkip int    `json:"min_frame_skip"`
	MaxFrameSkip int    `json:"max_frame_skip"`
	ReadPolicy   string `json:"read_policy"`

	KeyWaitMs    int     `json:"key_wait_ms"`
	QuitKey      int     `json:"quit_key"`
	PollInterval float64 `json:"poll_interval"`

	Codec       string `json:"codec"`
	Extension   string `json:"extension"`
	WindowTitle string `json:"window_title"`
	Overlay     bool   `json:"overlay"`

	Trace  bool   `json:"trace"`
	Report bool   `json:"report"`
	Listen string `json:"listen"`

	// Sessions stops the outer loop after that many sessions; 0 runs forever.
	Sessions int `json:"sessions"`

	Debug     bool   `json:"debug"`
	LogFormat string `json:"log_format"`
}

func DefaultConfig() *Config {
	return &Config{
		BaseFolder:      "/home/pi/motionBasedVideoPlayer/data/picameraVideos",
		VideoFile:       "/home/pi/motionBasedVideoPlayer/data/displayVideos/test.mp4",
		CameraDevice:    "0",
		Width:           320,
		Height:          256,
		FPS:             30,
		MaxSignalLength: 100,
		MinFrameSkip:    1,
		MaxFrameSkip:    200,
		ReadPolicy:      ReadTwice,
		KeyWaitMs:       30,
		QuitKey:         27,
		PollInterval:    0,
		Codec:           "MJPG",
		Extension:       "avi",
		WindowTitle:     "frame",
		Overlay:         false,
		Trace:           true,
		Report:          true,
		Listen:          "",
		Sessions:        0,
		Debug:           false,
		LogFormat:       "text",
	}
}

// Validate normalizes values that can be repaired and rejects the rest.
func (c *Config) Validate() error {
	if c.Width <= 0 {
		c.Width = 320
	}
	if c.Height <= 0 {
		c.Height = 256
	}
	if c.FPS <= 0 {
		c.FPS = 30
	}
	if c.MaxSignalLength <= 0 {
		c.MaxSignalLength = 100
	}
	if c.MinFrameSkip < 1 {
		c.MinFrameSkip = 1
	}
	if c.MaxFrameSkip < c.MinFrameSkip {
		c.MaxFrameSkip = c.MinFrameSkip
	}
	if c.KeyWaitMs <= 0 {
		c.KeyWaitMs = 30
	}
	if c.PollInterval < 0 {
		c.PollInterval = 0
	}
	if c.Sessions < 0 {
		c.Sessions = 0
	}
	if c.Extension == "" {
		c.Extension = "avi"
	}
	if c.WindowTitle == "" {
		c.WindowTitle = "frame"
	}
	if c.LogFormat != "json" {
		c.LogFormat = "text"
	}

	if c.ReadPolicy != ReadOnce && c.ReadPolicy != ReadTwice {
		return fmt.Errorf("unknown read policy %q (want %q or %q)", c.ReadPolicy, ReadOnce, ReadTwice)
	}
	if len(c.Codec) != 4 {
		return fmt.Errorf("codec must be a fourcc, got %q", c.Codec)
	}
	if c.BaseFolder == "" {
		return fmt.Errorf("base folder is required")
	}
	if c.VideoFile == "" {
		return fmt.Errorf("video file is required")
	}
	return nil
}

func (c *Config) KeyWait() time.Duration {
	return time.Duration(c.KeyWaitMs) * time.Millisecond
}

func (c *Config) PollDuration() time.Duration {
	return time.Duration(c.PollInterval * float64(time.Second))
}

// Load reads configuration from the given JSON file path over
// DefaultConfig(). The file must exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil {
		return cfg, fmt.Errorf("decode %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

func bind(fs *flag.FlagSet, c *Config) {
	fs.StringVar(&c.BaseFolder, "base-folder", c.BaseFolder, "Folder receiving recordings, traces and reports")
	fs.StringVar(&c.VideoFile, "video-file", c.VideoFile, "Reference video played back")
	fs.StringVar(&c.CameraDevice, "camera", c.CameraDevice, "Camera device id or url")
	fs.IntVar(&c.Width, "width", c.Width, "Camera frame width")
	fs.IntVar(&c.Height, "height", c.Height, "Camera frame height")
	fs.Float64Var(&c.FPS, "fps", c.FPS, "Camera frame rate")
	fs.IntVar(&c.MaxSignalLength, "max-signal-length", c.MaxSignalLength, "Samples kept by the telemetry monitor")
	fs.IntVar(&c.MinFrameSkip, "min-skip", c.MinFrameSkip, "Smallest frame skip")
	fs.IntVar(&c.MaxFrameSkip, "max-skip", c.MaxFrameSkip, "Largest frame skip")
	fs.StringVar(&c.ReadPolicy, "read-policy", c.ReadPolicy, "Reads after each seek: once or twice")
	fs.IntVar(&c.KeyWaitMs, "key-wait", c.KeyWaitMs, "Milliseconds to wait for a key after each frame")
	fs.IntVar(&c.QuitKey, "quit-key", c.QuitKey, "Key code ending the program")
	fs.Float64Var(&c.PollInterval, "poll", c.PollInterval, "Seconds to sleep between iterations")
	fs.StringVar(&c.Codec, "codec", c.Codec, "Recording fourcc")
	fs.StringVar(&c.Extension, "extension", c.Extension, "Recording file extension")
	fs.StringVar(&c.WindowTitle, "window", c.WindowTitle, "Display window title")
	fs.BoolVar(&c.Overlay, "overlay", c.Overlay, "Draw the frame skip gauge")
	fs.BoolVar(&c.Trace, "trace", c.Trace, "Write a motion trace next to the recording")
	fs.BoolVar(&c.Report, "report", c.Report, "Write a session report next to the recording")
	fs.StringVar(&c.Listen, "listen", c.Listen, "Telemetry listen address, empty disables it")
	fs.IntVar(&c.Sessions, "sessions", c.Sessions, "Number of sessions to run, 0 for no limit")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "Debug logging")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "Log format: text or json")
}

// Parse builds the configuration from command-line arguments. Flags given
// explicitly take precedence over the file named by -config.
func Parse(name string, args []string) (*Config, error) {
	cfg := DefaultConfig()
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	var path string
	fs.StringVar(&path, "config", "", "JSON configuration file")
	bind(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if path != "" {
		fileCfg, err := Load(path)
		if err != nil {
			return nil, err
		}
		overrides := flag.NewFlagSet(name, flag.ContinueOnError)
		bind(overrides, fileCfg)
		var setErr error
		fs.Visit(func(f *flag.Flag) {
			if f.Name == "config" || setErr != nil {
				return
			}
			setErr = overrides.Set(f.Name, f.Value.String())
		})
		if setErr != nil {
			return nil, setErr
		}
		cfg = fileCfg
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
