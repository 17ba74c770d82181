package report

import (
	"context"
	"errors"

	"github.com/temirov/gitm/internal/baseline"
	"github.com/temirov/gitm/internal/snapshot"
)

// ErrStoreNotConfigured indicates a MappingEmitter was built without a store.
var ErrStoreNotConfigured = errors.New("baseline store not configured")

// MappingEmitter persists the final mapping as a baseline document.
type MappingEmitter struct {
	store       *baseline.Store
	destination string
	format      baseline.Format
}

// NewMappingEmitter constructs a MappingEmitter saving to destination in format.
func NewMappingEmitter(store *baseline.Store, destination string, format baseline.Format) (*MappingEmitter, error) {
	if store == nil {
		return nil, ErrStoreNotConfigured
	}
	return &MappingEmitter{store: store, destination: destination, format: format}, nil
}

// Emit does nothing; the mapping is written once in Finish.
func (emitter *MappingEmitter) Emit(Record) error {
	return nil
}

// Finish saves the mapping.
func (emitter *MappingEmitter) Finish(executionContext context.Context, mapping *snapshot.Baseline) error {
	return emitter.store.SaveAs(executionContext, mapping, emitter.destination, emitter.format)
}
