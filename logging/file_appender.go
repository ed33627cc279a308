package logging

import (
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileAppender writes console formatted lines to a size-rotated log file.
type FileAppender struct {
	ConsoleAppender
	rotator *lumberjack.Logger
}

// NewFileAppender returns an appender writing to path. The file is created on the first write and
// rotated once it reaches maxSizeMB megabytes, keeping two compressed backups.
func NewFileAppender(path string, maxSizeMB int) *FileAppender {
	rotator := &lumberjack.Logger{
		Filename:   filepath.Clean(path),
		MaxSize:    maxSizeMB,
		MaxBackups: 2,
		Compress:   true,
	}
	return &FileAppender{ConsoleAppender: NewWriterAppender(rotator), rotator: rotator}
}

// Close closes the current log file.
func (fa *FileAppender) Close() error {
	return fa.rotator.Close()
}
