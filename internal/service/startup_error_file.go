package service

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// StartupErrorFile is the name of the file written by WriteStartupErrorFile.
const StartupErrorFile = "startup-error.log"

// WriteStartupErrorFile records a startup error in logDir. Only the most
// recent error is kept. It returns the path written, or "" on failure.
func WriteStartupErrorFile(logDir string, err error) string {
	if mkErr := os.MkdirAll(logDir, 0755); mkErr != nil {
		return ""
	}

	path := filepath.Join(logDir, StartupErrorFile)
	f, ferr := os.Create(path)
	if ferr != nil {
		return ""
	}
	defer f.Close()

	ts := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(f, "[%s] %s STARTUP ERROR\n%v\n", ts, Name, err)
	return path
}
