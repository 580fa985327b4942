package model

import (
	"sync"

	mlerrors "github.com/YuminosukeSato/mlworkflow/pkg/errors"
)

// StateManager manages the fitted state of a model in a thread-safe manner.
// Models embed it by composition and call RequireFitted at the top of every
// method that needs learned parameters.
type StateManager struct {
	name string

	mu        sync.RWMutex
	fitted    bool
	nFeatures int
	nSamples  int
}

// NewStateManager creates a new StateManager for the named model.
// The name appears in NotFittedError messages.
func NewStateManager(name string) *StateManager {
	return &StateManager{name: name}
}

// Name returns the model name given at construction.
func (s *StateManager) Name() string {
	return s.name
}

// IsFitted returns whether the model has been fitted.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fitted
}

// SetFitted marks the model as fitted and records the training shape.
func (s *StateManager) SetFitted(nFeatures, nSamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = true
	s.nFeatures = nFeatures
	s.nSamples = nSamples
}

// Reset resets the fitted state.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = false
	s.nFeatures = 0
	s.nSamples = 0
}

// GetDimensions returns the number of features and samples seen during fitting.
func (s *StateManager) GetDimensions() (nFeatures, nSamples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nFeatures, s.nSamples
}

// RequireFitted returns a NotFittedError naming method if the model has not
// been fitted.
func (s *StateManager) RequireFitted(method string) error {
	if !s.IsFitted() {
		return mlerrors.NewNotFittedError(s.name, method)
	}
	return nil
}

// RequireFeatures checks that a prediction input has the number of columns
// seen during fitting. It also fails when the model is not fitted.
func (s *StateManager) RequireFeatures(op string, cols int) error {
	if err := s.RequireFitted(op); err != nil {
		return err
	}
	nFeatures, _ := s.GetDimensions()
	if cols != nFeatures {
		return mlerrors.NewDimensionError(op, nFeatures, cols, 1)
	}
	return nil
}
