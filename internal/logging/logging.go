// Package logging routes the standard logger into a rotating diagnostic file.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures Setup.
type Options struct {
	// Path is the log file. Its directory is created if missing.
	Path       string
	MaxSizeMB  int
	MaxBackups int
	// Verbose mirrors log output to Stderr.
	Verbose bool
	// Stderr defaults to os.Stderr.
	Stderr io.Writer
}

// Setup points the standard logger at a lumberjack-rotated file and returns
// the closer that restores the previous output.
func Setup(opts Options) (io.Closer, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("logging: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o700); err != nil {
		return nil, fmt.Errorf("logging: create log dir: %w", err)
	}
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 10
	}
	if opts.MaxBackups < 0 {
		opts.MaxBackups = 0
	}

	file := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		Compress:   false,
	}

	var out io.Writer = file
	if opts.Verbose {
		stderr := opts.Stderr
		if stderr == nil {
			stderr = os.Stderr
		}
		out = io.MultiWriter(file, stderr)
	}

	previous := log.Writer()
	log.SetOutput(out)
	log.SetFlags(log.LstdFlags)

	return &closer{file: file, previous: previous}, nil
}

type closer struct {
	file     *lumberjack.Logger
	previous io.Writer
}

func (c *closer) Close() error {
	log.SetOutput(c.previous)
	return c.file.Close()
}
