package output

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/vijay-prabhu/mailphone/internal/email"
)

// TimestampLayout names output files; two runs in the same second collide
const TimestampLayout = "2006-01-02_15-04-05"

// WriteError is returned when the output directory or file cannot be written
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write output %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// FileName returns the artifact name for a run started at now
func FileName(now time.Time) string {
	return "emails_" + now.Format(TimestampLayout) + ".json"
}

// WriteRecords writes records as indented JSON to a timestamped file in dir
// and returns its path. dir is created when missing.
func WriteRecords(dir string, records []email.Record, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", &WriteError{Path: dir, Err: err}
	}

	if records == nil {
		records = []email.Record{}
	}

	path := filepath.Join(dir, FileName(now))
	f, err := os.Create(path)
	if err != nil {
		return "", &WriteError{Path: path, Err: err}
	}

	if err := JSONTo(f, records); err != nil {
		f.Close()
		return "", &WriteError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return "", &WriteError{Path: path, Err: err}
	}

	return path, nil
}

// PersistResult is the outcome of Persist
type PersistResult struct {
	Path          string
	Phones        []string
	MappingLoaded bool
}

// Persist writes the records, then cross-references recipients against the
// mapping file. Only write failures are returned; mapping problems are logged.
func Persist(dir, mappingPath string, records []email.Record, now time.Time, log zerolog.Logger) (*PersistResult, error) {
	path, err := WriteRecords(dir, records, now)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("path", path).Int("records", len(records)).Msg("wrote output")

	mapping, err := LoadMapping(mappingPath)
	if err != nil {
		log.Warn().Err(err).Msg("continuing with empty phone mapping")
	}

	return &PersistResult{
		Path:          path,
		Phones:        CrossReference(records, mapping),
		MappingLoaded: err == nil,
	}, nil
}
