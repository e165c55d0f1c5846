package config

import (
	"sync"
	"time"
)

// Store holds the live Config. Updates are all-or-nothing: a failed
// resolve leaves the previous Config in effect.
type Store struct {
	defaults Config
	cfg      Config
	lastSet  time.Time
	sync.RWMutex
}

// NewStore resolves the overrides against defaults.
func NewStore(defaults Config, o Overrides) (*Store, error) {
	cfg, err := Resolve(defaults, o)
	if err != nil {
		return nil, err
	}
	return &Store{
		defaults: defaults.Clone(),
		cfg:      cfg,
		lastSet:  time.Now(),
	}, nil
}

// Config returns a copy of the live configuration.
func (s *Store) Config() Config {
	s.RLock()
	defer s.RUnlock()
	return s.cfg.Clone()
}

// LastSet is when the live configuration was last replaced.
func (s *Store) LastSet() time.Time {
	s.RLock()
	defer s.RUnlock()
	return s.lastSet
}

// Reconfigure replaces the live configuration with the defaults
// resolved against o.
func (s *Store) Reconfigure(o Overrides) (Config, error) {
	cfg, err := Resolve(s.defaults, o)
	if err != nil {
		return Config{}, err
	}

	s.Lock()
	defer s.Unlock()
	s.cfg = cfg
	s.lastSet = time.Now()

	return cfg.Clone(), nil
}

// SetSelectionChance validates n and updates only the selection chance
// of the live configuration.
func (s *Store) SetSelectionChance(n int) error {
	s.Lock()
	defer s.Unlock()

	cfg := s.cfg.Clone()
	cfg.SelectionChance = n
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.cfg = cfg
	s.lastSet = time.Now()
	return nil
}
