package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/ganchinyao/tos-algo-trade/market"
)

// Trading is the externally editable trading configuration. It is persisted
// as a single JSON file and mutated only through Store's administrative
// methods.
type Trading struct {
	DatesUnavailableToTrade []string `json:"datesUnavailableToTrade"`
	EligibleToTrade         bool     `json:"eligibleToTrade"`
}

// Store owns the trading config file. Every mutation persists immediately
// and appends to an audit log next to the config file; there is no ambient
// global to assign to from elsewhere in the codebase.
type Store struct {
	mu        sync.RWMutex
	path      string
	auditPath string
	cfg       Trading
}

type auditEntry struct {
	Time   time.Time `json:"time"`
	Actor  string    `json:"actor"`
	Action string    `json:"action"`
	Detail string    `json:"detail,omitempty"`
}

// OpenStore loads the trading config at path, creating it with defaults
// (trading enabled, no blackout dates) when missing.
func OpenStore(path string) (*Store, error) {
	s := &Store{
		path:      path,
		auditPath: auditPathFor(path),
		cfg:       Trading{DatesUnavailableToTrade: []string{}, EligibleToTrade: true},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read trading config: %w", err)
		}
		if err := s.persist(); err != nil {
			return nil, err
		}
		return s, nil
	}

	if err := json.Unmarshal(data, &s.cfg); err != nil {
		return nil, fmt.Errorf("decode trading config: %w", err)
	}
	if s.cfg.DatesUnavailableToTrade == nil {
		s.cfg.DatesUnavailableToTrade = []string{}
	}
	return s, nil
}

func auditPathFor(path string) string {
	ext := filepath.Ext(path)
	return path[:len(path)-len(ext)] + ".audit.jsonl"
}

// Snapshot returns a copy of the current trading config.
func (s *Store) Snapshot() Trading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.cfg
	out.DatesUnavailableToTrade = slices.Clone(s.cfg.DatesUnavailableToTrade)
	return out
}

// Eligible reports the kill-switch state.
func (s *Store) Eligible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.EligibleToTrade
}

// IsBlackout reports whether date (YYYY-MM-DD) is blocked from trading.
func (s *Store) IsBlackout(date string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.cfg.DatesUnavailableToTrade, date)
}

// SetKillSwitch flips trading eligibility and persists.
func (s *Store) SetKillSwitch(eligible bool, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfg.EligibleToTrade = eligible
	if err := s.persist(); err != nil {
		return err
	}
	return s.audit(actor, "set_kill_switch", fmt.Sprintf("eligibleToTrade=%t", eligible))
}

// AddBlackoutDate adds a YYYY-MM-DD date to the no-trade set and persists.
// Adding an already present date is a no-op.
func (s *Store) AddBlackoutDate(date, actor string) error {
	if _, err := market.ParseDate(date); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.Contains(s.cfg.DatesUnavailableToTrade, date) {
		return nil
	}
	s.cfg.DatesUnavailableToTrade = append(s.cfg.DatesUnavailableToTrade, date)
	if err := s.persist(); err != nil {
		return err
	}
	return s.audit(actor, "add_blackout_date", date)
}

// Reload re-reads the config file, picking up out-of-band edits. Used by the
// file watcher and safe to call at any time.
func (s *Store) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("reload trading config: %w", err)
	}

	var cfg Trading
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("decode trading config: %w", err)
	}
	if cfg.DatesUnavailableToTrade == nil {
		cfg.DatesUnavailableToTrade = []string{}
	}

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}

// Path returns the config file location.
func (s *Store) Path() string {
	return s.path
}

// persist writes the config atomically. Caller holds the lock.
func (s *Store) persist() error {
	data, err := json.MarshalIndent(s.cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode trading config: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write trading config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close trading config: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace trading config: %w", err)
	}
	return nil
}

// audit appends one JSON line per mutation. Audit failures do not roll the
// mutation back; the config write already succeeded.
func (s *Store) audit(actor, action, detail string) error {
	entry := auditEntry{
		Time:   time.Now().UTC(),
		Actor:  actor,
		Action: action,
		Detail: detail,
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode audit entry: %w", err)
	}

	f, err := os.OpenFile(s.auditPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append audit log: %w", err)
	}
	return nil
}
