package helpers

import (
	"fmt"
	"log"
	"os"
	"time"
)

// LoggerInterface defines the interface for skip/summary reporting implementations
type LoggerInterface interface {
	LogError(itemURL string, err error)
	LogInfo(format string, args ...interface{})
}

// Logger reports skipped items to a file and informational messages to stdout
type Logger struct {
	errorFile string
}

// NewLogger creates a new logger instance
func NewLogger(errorFile string) *Logger {
	return &Logger{
		errorFile: errorFile,
	}
}

// LogError appends a skipped item with its URL and timestamp to the error file
func (l *Logger) LogError(itemURL string, err error) {
	f, fileErr := os.OpenFile(l.errorFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if fileErr != nil {
		log.Printf("failed to open error file: %v\n", fileErr)
		return
	}
	defer f.Close()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	f.WriteString(fmt.Sprintf("[%s] [%s] %s\n", timestamp, itemURL, err.Error()))
}

// LogInfo prints an informational message to stdout
func (l *Logger) LogInfo(format string, args ...interface{}) {
	log.Printf(format+"\n", args...)
}
