package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// logFileName is the log file inside the data dir.
const logFileName = "readhub.log"

// New returns a logger writing to the log file inside dataDir. Logging goes
// to a file because stdout belongs to the TUI while the alt screen is up.
func New(dataDir, level string) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("logging.New: create data dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dataDir, logFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("logging.New: open log file: %w", err)
	}
	log.SetOutput(f)

	return log, nil
}
