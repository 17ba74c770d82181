package baseline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/m-mizutani/goerr/v2"
	"go.uber.org/zap"

	"github.com/temirov/gitm/internal/snapshot"
)

// StandardStreamLocation denotes standard output as a save destination.
const StandardStreamLocation = "-"

const (
	lockSuffixConstant               = ".lock"
	temporaryPatternTemplateConstant = ".%s.*.tmp"
	lockRetryDelayConstant           = 50 * time.Millisecond
	persistedFileModeConstant        = 0o644
	locationFieldConstant            = "location"
	formatFieldConstant              = "format"
	entryCountFieldConstant          = "entries"
	candidatesFieldConstant          = "candidates"
)

// ErrLockHeld indicates another process is writing the same baseline.
var ErrLockHeld = errors.New("baseline is locked by another process")

// Store reads and writes baseline documents.
type Store struct {
	logger         *zap.Logger
	standardOutput io.Writer
}

// NewStore constructs a Store. Saves to StandardStreamLocation go to standardOutput.
func NewStore(logger *zap.Logger, standardOutput io.Writer) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if standardOutput == nil {
		standardOutput = os.Stdout
	}
	return &Store{logger: logger, standardOutput: standardOutput}
}

// Load reads the baseline at location, choosing the serialization by extension.
func (store *Store) Load(location string) (*snapshot.Baseline, error) {
	contents, readError := os.ReadFile(location)
	if readError != nil {
		return nil, snapshot.WrapKind(snapshot.ErrBaselineUnreadable, readError, "unable to read baseline", goerr.V(locationFieldConstant, location))
	}
	format := FormatForLocation(location)
	baseline, decodeError := Decode(contents, format)
	if decodeError != nil {
		return nil, snapshot.WrapKind(snapshot.ErrBaselineUnreadable, decodeError, "unable to parse baseline", goerr.V(locationFieldConstant, location), goerr.V(formatFieldConstant, string(format)))
	}
	store.logger.Debug("Loaded baseline", zap.String(locationFieldConstant, location), zap.Int(entryCountFieldConstant, baseline.Len()))
	return baseline, nil
}

// LoadFirstAvailable loads the first location that exists. A location that exists but
// cannot be parsed fails immediately rather than falling through to the next one.
func (store *Store) LoadFirstAvailable(locations ...string) (*snapshot.Baseline, string, error) {
	for _, location := range locations {
		if len(location) == 0 {
			continue
		}
		if _, statError := os.Stat(location); errors.Is(statError, fs.ErrNotExist) {
			continue
		}
		baseline, loadError := store.Load(location)
		return baseline, location, loadError
	}
	return nil, "", goerr.Wrap(snapshot.ErrBaselineUnreadable, "no baseline file found", goerr.V(candidatesFieldConstant, locations))
}

// Save writes the baseline to destination in the serialization implied by its extension.
func (store *Store) Save(executionContext context.Context, baseline *snapshot.Baseline, destination string) error {
	return store.SaveAs(executionContext, baseline, destination, FormatForLocation(destination))
}

// SaveAs writes the baseline in the given serialization. File destinations are replaced
// atomically while holding an exclusive lock on a sibling lock file.
func (store *Store) SaveAs(executionContext context.Context, baseline *snapshot.Baseline, destination string, format Format) error {
	var encoded bytes.Buffer
	if encodeError := Encode(&encoded, baseline, format); encodeError != nil {
		return goerr.Wrap(encodeError, "unable to encode baseline", goerr.V(locationFieldConstant, destination))
	}
	if destination == StandardStreamLocation {
		_, writeError := store.standardOutput.Write(encoded.Bytes())
		return writeError
	}

	fileLock := flock.New(destination + lockSuffixConstant)
	locked, lockError := fileLock.TryLockContext(executionContext, lockRetryDelayConstant)
	if lockError != nil {
		return goerr.Wrap(lockError, "unable to lock baseline", goerr.V(locationFieldConstant, destination))
	}
	if !locked {
		return goerr.Wrap(ErrLockHeld, "unable to lock baseline", goerr.V(locationFieldConstant, destination))
	}
	defer func() {
		_ = fileLock.Unlock()
		_ = os.Remove(fileLock.Path())
	}()

	if replaceError := replaceFile(destination, encoded.Bytes()); replaceError != nil {
		return goerr.Wrap(replaceError, "unable to write baseline", goerr.V(locationFieldConstant, destination))
	}
	store.logger.Debug("Saved baseline", zap.String(locationFieldConstant, destination), zap.String(formatFieldConstant, string(format)), zap.Int(entryCountFieldConstant, baseline.Len()))
	return nil
}

func replaceFile(destination string, contents []byte) error {
	temporaryFile, createError := os.CreateTemp(filepath.Dir(destination), fmt.Sprintf(temporaryPatternTemplateConstant, filepath.Base(destination)))
	if createError != nil {
		return createError
	}
	temporaryPath := temporaryFile.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(temporaryPath)
		}
	}()

	if _, writeError := temporaryFile.Write(contents); writeError != nil {
		_ = temporaryFile.Close()
		return writeError
	}
	if syncError := temporaryFile.Sync(); syncError != nil {
		_ = temporaryFile.Close()
		return syncError
	}
	if closeError := temporaryFile.Close(); closeError != nil {
		return closeError
	}
	if chmodError := os.Chmod(temporaryPath, persistedFileModeConstant); chmodError != nil {
		return chmodError
	}
	if renameError := os.Rename(temporaryPath, destination); renameError != nil {
		return renameError
	}
	committed = true
	return nil
}
