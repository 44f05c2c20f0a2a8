// Command motion-probe replays a recorded video through the motion detector
// and prints the frame skips the player would have applied.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	uuid "github.com/gofrs/uuid/v5"
	"github.com/sirupsen/logrus"

	"github.com/kmmndr/motion_player/internal/config"
	"github.com/kmmndr/motion_player/internal/motion"
	"github.com/kmmndr/motion_player/internal/video"
)

func main() {
	var videoPath string
	var minSkip, maxSkip int
	var readPolicy string
	var printFrames bool

	flag.StringVar(&videoPath, "video", "", "Video filename")
	flag.IntVar(&minSkip, "min-skip", motion.DefaultMinFrameSkip, "Smallest frame skip")
	flag.IntVar(&maxSkip, "max-skip", motion.DefaultMaxFrameSkip, "Largest frame skip")
	flag.StringVar(&readPolicy, "read-policy", config.ReadTwice, "Reads after each seek: once or twice")
	flag.BoolVar(&printFrames, "print", false, "Print every frame")
	flag.Parse()

	if videoPath == "" {
		fmt.Println("Error: missing video filename option")
		os.Exit(1)
	}

	logger := logrus.New()

	stream, err := video.NewStream(videoPath)
	if err != nil {
		logger.WithError(err).Fatal("Unable to open video file")
	}
	defer stream.Close()

	fps := stream.Fps()
	if fps <= 0 {
		logger.Fatal("Unable to get video frame rate")
	}
	logger.WithFields(logrus.Fields{
		"fps":    fps,
		"width":  stream.Width(),
		"height": stream.Height(),
	}).Info("Video opened")

	reads := 2
	if readPolicy == config.ReadOnce {
		reads = 1
	}

	detector := motion.NewDetector(stream.Width(), stream.Height(), motion.NewSkipper(minSkip, maxSkip))
	defer detector.Close()
	sensor := motion.NewSensor(stream, detector, reads)
	report := motion.NewReport(uuid.Must(uuid.NewV4()), time.Now())

	frames, err := sensor.Detect(context.Background(), func(s motion.Sample) {
		_ = report.Observe(s)
		if printFrames {
			fmt.Printf("%.2fs frame=%d skip=%d scaled=%.2f baseline=%.2f changed=%.2f%% cursor=%d\n",
				stream.TimeAtFrame(s.Iteration), s.Iteration, s.FrameSkip, s.Scaled, s.Baseline, s.Changed, s.Cursor)
		}
	})
	if err != nil {
		logger.WithError(err).Fatal("Detection failed")
	}

	fmt.Printf("Frames: %d\n", frames)
	fmt.Printf("Mean frame skip: %.2f\n", report.MeanFrameSkip())
	fmt.Printf("Max frame skip: %d\n", report.MaxFrameSkip())
	fmt.Printf("Static frames: %d\n", report.DegenerateFrames())
	fmt.Printf("Mean changed pixels: %.2f%%\n", report.MeanChanged())
}
