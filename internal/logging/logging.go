package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup configures the standard logger. When path is empty everything goes
// to stderr only; otherwise output is mirrored into a size-rotated file.
func Setup(path string) {
	log.SetFlags(log.LstdFlags)
	if path == "" {
		return
	}

	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotator))
}
