package domain

import (
	"math"
	"sync"
)

const (
	maxBlockingThreshold    = 0.95
	blockingThresholdOffset = 0.2
)

// SimilarityConfig holds the tunable parameters of the similarity engine.
type SimilarityConfig struct {
	Enabled                 bool    `json:"enabled"`
	SimilarityThreshold     float64 `json:"similarity_threshold"`
	MaxMatches              int     `json:"max_matches"`
	MinPromptLength         int     `json:"min_prompt_length"`
	MaxHistoryDays          int     `json:"max_history_days"`
	ExcludeCurrentJob       bool    `json:"exclude_current_job"`
	ContextInjectionEnabled bool    `json:"context_injection_enabled"`
}

// DefaultSimilarityConfig returns the engine defaults.
func DefaultSimilarityConfig() SimilarityConfig {
	return SimilarityConfig{
		Enabled:                 true,
		SimilarityThreshold:     0.7,
		MaxMatches:              3,
		MinPromptLength:         10,
		MaxHistoryDays:          30,
		ExcludeCurrentJob:       true,
		ContextInjectionEnabled: true,
	}
}

// BlockingThreshold is the stricter cutoff used by the near-duplicate gate.
func (c SimilarityConfig) BlockingThreshold() float64 {
	return math.Min(maxBlockingThreshold, c.SimilarityThreshold+blockingThresholdOffset)
}

// SimilarityConfigUpdate is a partial config; nil fields keep their current value.
type SimilarityConfigUpdate struct {
	Enabled                 *bool    `json:"enabled,omitempty"`
	SimilarityThreshold     *float64 `json:"similarity_threshold,omitempty"`
	MaxMatches              *int     `json:"max_matches,omitempty"`
	MinPromptLength         *int     `json:"min_prompt_length,omitempty"`
	MaxHistoryDays          *int     `json:"max_history_days,omitempty"`
	ExcludeCurrentJob       *bool    `json:"exclude_current_job,omitempty"`
	ContextInjectionEnabled *bool    `json:"context_injection_enabled,omitempty"`
}

// ConfigStore holds the live engine configuration.
type ConfigStore struct {
	mu  sync.RWMutex
	cfg SimilarityConfig
}

// NewConfigStore creates a config store seeded with initial.
func NewConfigStore(initial SimilarityConfig) *ConfigStore {
	return &ConfigStore{
		mu:  sync.RWMutex{},
		cfg: initial,
	}
}

// Get returns a snapshot of the current configuration.
func (s *ConfigStore) Get() SimilarityConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.cfg
}

// Update shallow-merges the set fields of update and returns the resulting configuration.
// Values are not range checked; out-of-range thresholds simply match everything or nothing.
func (s *ConfigStore) Update(update SimilarityConfigUpdate) SimilarityConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	if update.Enabled != nil {
		s.cfg.Enabled = *update.Enabled
	}
	if update.SimilarityThreshold != nil {
		s.cfg.SimilarityThreshold = *update.SimilarityThreshold
	}
	if update.MaxMatches != nil {
		s.cfg.MaxMatches = *update.MaxMatches
	}
	if update.MinPromptLength != nil {
		s.cfg.MinPromptLength = *update.MinPromptLength
	}
	if update.MaxHistoryDays != nil {
		s.cfg.MaxHistoryDays = *update.MaxHistoryDays
	}
	if update.ExcludeCurrentJob != nil {
		s.cfg.ExcludeCurrentJob = *update.ExcludeCurrentJob
	}
	if update.ContextInjectionEnabled != nil {
		s.cfg.ContextInjectionEnabled = *update.ContextInjectionEnabled
	}

	return s.cfg
}
