package helpers

import (
	"fmt"
	"log"
	"os"
	"time"
)

// ReportWriter records per-brand run outcomes to a file so a failed
// brand shows up as a labeled entry without affecting the others.
type ReportWriter interface {
	WriteResult(brand string, status string, productCount int, err error)
}

// FileReport writes run results to an append-only report file
type FileReport struct {
	path string
}

// NewFileReport creates a new file-backed report writer
func NewFileReport(path string) *FileReport {
	return &FileReport{
		path: path,
	}
}

// WriteResult appends one labeled result line for a brand run
func (r *FileReport) WriteResult(brand string, status string, productCount int, err error) {
	f, fileErr := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if fileErr != nil {
		log.Printf("failed to open report file: %v\n", fileErr)
		return
	}
	defer f.Close()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	line := fmt.Sprintf("[%s] [%s] %s products=%d", timestamp, brand, status, productCount)
	if err != nil {
		line += " error=" + err.Error()
	}
	f.WriteString(line + "\n")
}
