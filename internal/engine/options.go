package engine

import (
	"github.com/sirupsen/logrus"

	"github.com/dshills/keyweave/internal/feature/macro"
)

// Option configures an Engine during creation.
type Option func(*Engine)

// WithLogger sets the logger. Engines log nothing by default.
func WithLogger(log *logrus.Entry) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithDefaultStore loads the default layer from store and saves it on DF.
func WithDefaultStore(store DefaultLayerStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithScripter sets the runtime for script custom actions.
func WithScripter(s Scripter) Option {
	return func(e *Engine) {
		e.scripts = s
	}
}

// WithMacroRecorder shares recorder with the engine, e.g. one loaded from
// disk.
func WithMacroRecorder(recorder *macro.Recorder) Option {
	return func(e *Engine) {
		e.recorder = recorder
	}
}
