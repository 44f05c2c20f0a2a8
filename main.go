package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/kmmndr/motion_player/internal/config"
	"github.com/kmmndr/motion_player/internal/player"
	"github.com/kmmndr/motion_player/internal/telemetry"
	"github.com/kmmndr/motion_player/internal/trace"
	"github.com/kmmndr/motion_player/internal/video"
)

func main() {
	cfg, err := config.Parse(os.Args[0], os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(2)
	}

	logger := NewLogger(cfg.Debug, cfg.LogFormat)

	if err := player.EnsureBaseFolder(cfg.BaseFolder); err != nil {
		logger.WithError(err).Fatal("Unable to create base folder")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var hub *telemetry.Hub
	if cfg.Listen != "" {
		hub = telemetry.NewHub(cfg.MaxSignalLength, logger)
		go func() {
			if err := hub.Run(ctx, cfg.Listen); err != nil {
				logger.WithError(err).Error("Telemetry stopped")
			}
		}()
	}

	for n := 0; cfg.Sessions == 0 || n < cfg.Sessions; n++ {
		outcome, err := runSession(ctx, cfg, hub, logger)

		switch outcome {
		case player.OutcomeQuit:
			stop()
			fmt.Fprintln(os.Stderr, "Video stream stopped by quit key")
			os.Exit(1)
		case player.OutcomeCanceled:
			logger.Info("Interrupted")
			return
		case player.OutcomeFailed:
			logger.WithError(err).Fatal("Session failed")
		default:
			if err != nil {
				logger.WithError(err).Warn("Session ended with errors")
			}
		}
	}
}

// runSession records one session and plays the reference video once.
func runSession(ctx context.Context, cfg *config.Config, hub *telemetry.Hub, logger logrus.FieldLogger) (player.Outcome, error) {
	camera, err := video.OpenCamera(cfg.CameraDevice, cfg.Width, cfg.Height, cfg.FPS, cfg.Codec, logger)
	if err != nil {
		return player.OutcomeFailed, err
	}
	window := video.NewWindow(cfg.WindowTitle)

	ctrl := player.New(cfg, camera, window, logger)
	defer func() {
		if err := ctrl.Close(); err != nil {
			logger.WithError(err).Warn("Unable to close camera")
		}
	}()

	session, err := ctrl.StartSession(player.RecordingPath(cfg.BaseFolder, ctrl.Clock(), cfg.Extension))
	if err != nil {
		_ = window.Close()
		return player.OutcomeFailed, err
	}
	sessionLogger := logger.WithField("session", session.ID.String())

	if cfg.Trace {
		header := trace.Header{
			Session:      session.ID.String(),
			Clock:        session.Clock,
			Width:        cfg.Width,
			Height:       cfg.Height,
			MaxFrameSkip: cfg.MaxFrameSkip,
			ReadPolicy:   cfg.ReadPolicy,
		}
		tw, err := trace.Create(player.TracePath(cfg.BaseFolder, session.Clock), header)
		if err != nil {
			sessionLogger.WithError(err).Warn("Motion trace disabled")
		} else {
			defer func() {
				if err := tw.Close(); err != nil {
					sessionLogger.WithError(err).Warn("Unable to close motion trace")
				}
			}()
			ctrl.AddObserver(tw)
		}
	}
	if hub != nil {
		ctrl.AddObserver(hub)
	}

	ref, openErr := video.OpenReference(cfg.VideoFile)
	if openErr != nil {
		// Run on a closed reference only stops the recording.
		_, err := ctrl.Run(ctx, &video.Reference{}, 0)
		return player.OutcomeFailed, errors.Join(openErr, err)
	}

	sessionLogger.WithFields(logrus.Fields{
		"path":   cfg.VideoFile,
		"frames": ref.FrameCount(),
	}).Info("Reference video opened")

	outcome, err := ctrl.Run(ctx, ref, cfg.PollDuration())

	if cfg.Report {
		path := player.ReportPath(cfg.BaseFolder, session.Clock)
		if werr := session.Report().WriteFile(path); werr != nil {
			sessionLogger.WithError(werr).Warn("Unable to write session report")
		} else {
			sessionLogger.WithField("path", path).Debug("Session report written")
		}
	}

	return outcome, err
}
