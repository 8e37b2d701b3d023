package logger

import (
	"io"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewFileWriter returns a size-rotating file writer. maxSizeMB caps a single
// file before rotation and maxFiles caps how many rotated files are retained;
// rotated files are gzip-compressed.
func NewFileWriter(path string, maxSizeMB, maxFiles int) io.Writer {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxFiles,
		Compress:   true,
	}
}
