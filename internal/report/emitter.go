package report

import (
	"context"
	"errors"

	"github.com/temirov/gitm/internal/snapshot"
)

// Record is one classified checkout. Identity.Path holds the baseline key.
type Record struct {
	Identity snapshot.RepoIdentity
	State    snapshot.DriftState
}

// Emitter receives every classified checkout once and the final mapping once.
type Emitter interface {
	Emit(record Record) error
	Finish(executionContext context.Context, mapping *snapshot.Baseline) error
}

// MultiEmitter fans records out to several emitters in order.
type MultiEmitter struct {
	emitters []Emitter
}

// NewMultiEmitter constructs a MultiEmitter, skipping nil emitters.
func NewMultiEmitter(emitters ...Emitter) *MultiEmitter {
	configured := make([]Emitter, 0, len(emitters))
	for _, emitter := range emitters {
		if emitter != nil {
			configured = append(configured, emitter)
		}
	}
	return &MultiEmitter{emitters: configured}
}

// Emit forwards the record to every emitter, returning their joined failures.
func (multiEmitter *MultiEmitter) Emit(record Record) error {
	var emitErrors []error
	for _, emitter := range multiEmitter.emitters {
		if emitError := emitter.Emit(record); emitError != nil {
			emitErrors = append(emitErrors, emitError)
		}
	}
	return errors.Join(emitErrors...)
}

// Finish forwards the mapping to every emitter, returning their joined failures.
func (multiEmitter *MultiEmitter) Finish(executionContext context.Context, mapping *snapshot.Baseline) error {
	var finishErrors []error
	for _, emitter := range multiEmitter.emitters {
		if finishError := emitter.Finish(executionContext, mapping); finishError != nil {
			finishErrors = append(finishErrors, finishError)
		}
	}
	return errors.Join(finishErrors...)
}
