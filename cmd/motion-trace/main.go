// Command motion-trace dumps a motion trace as JSON.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kmmndr/motion_player/internal/trace"
)

func main() {
	var (
		path  = flag.String("path", "", "Path to a _motion.cbor trace")
		limit = flag.Int("limit", 0, "Number of records to dump, 0 for all")
	)
	flag.Parse()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	if *path == "" {
		logger.Fatal("path is required")
	}

	r, err := trace.Open(*path)
	if err != nil {
		logger.WithError(err).Fatal("Unable to open trace")
	}
	defer r.Close()

	header, err := json.MarshalIndent(r.Header(), "", "  ")
	if err != nil {
		logger.WithError(err).Fatal("Unable to encode trace header")
	}
	fmt.Println(string(header))

	for count := 0; *limit == 0 || count < *limit; count++ {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return
		}
		if errors.Is(err, trace.ErrTruncated) {
			logger.WithError(err).WithField("records", count).Warn("Trace ends inside a record")
			return
		}
		if err != nil {
			logger.WithError(err).WithField("record", count).Fatal("Unable to read trace")
		}
		pretty, err := json.Marshal(rec.Sample)
		if err != nil {
			logger.WithError(err).WithField("record", count).Warn("JSON encode error")
			continue
		}
		fmt.Printf("%s %s\n", rec.Written.Format(time.RFC3339Nano), pretty)
	}
}
