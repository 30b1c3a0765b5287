// Package datastore stores hardware calibration records. Remote backends
// refresh calibration on a schedule; the store keeps the history so drift is
// inspectable after the fact.
package datastore

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// CalibrationRecord is one calibration snapshot of a hardware device. Decay
// times are in microseconds, error rates are unitless probabilities.
type CalibrationRecord struct {
	Device       string             `json:"device" yaml:"device"`
	UpdatedAt    time.Time          `json:"updated_at" yaml:"updated_at"`
	T1           map[int]float64    `json:"t1" yaml:"t1"`
	T2           map[int]float64    `json:"t2" yaml:"t2"`
	ReadoutError map[int]float64    `json:"readout_error" yaml:"readout_error"`
	GateErrors   map[string]float64 `json:"gate_errors" yaml:"gate_errors"`
	Connectivity [][2]int           `json:"connectivity" yaml:"connectivity"`
}

// Validate checks that the record carries a device name and a timestamp.
func (r CalibrationRecord) Validate() error {
	if r.Device == "" {
		return errors.New("calibration record requires a device name")
	}
	if r.UpdatedAt.IsZero() {
		return errors.New("calibration record requires an update timestamp")
	}

	return nil
}

var ErrCalibrationNotFound = errors.New("no calibration record found")

// Store keeps calibration records per device.
type Store interface {
	// Add stores a record after validating it.
	Add(record CalibrationRecord) error

	// Latest returns the most recent record for a device, or
	// ErrCalibrationNotFound.
	Latest(device string) (CalibrationRecord, error)

	// History returns all records for a device, oldest first.
	History(device string) ([]CalibrationRecord, error)

	// Devices returns the sorted device names with at least one record.
	Devices() []string
}

// MemoryStore is an in-memory Store, safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]CalibrationRecord
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]CalibrationRecord)}
}

// Add stores a record, keeping each device's history ordered by timestamp.
func (s *MemoryStore) Add(record CalibrationRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.records[record.Device], record)
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].UpdatedAt.Before(history[j].UpdatedAt)
	})
	s.records[record.Device] = history

	return nil
}

// Latest returns the most recent record for the device.
func (s *MemoryStore) Latest(device string) (CalibrationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.records[device]
	if len(history) == 0 {
		return CalibrationRecord{}, fmt.Errorf("device %s: %w", device, ErrCalibrationNotFound)
	}

	return history[len(history)-1], nil
}

// History returns a copy of the device's records, oldest first.
func (s *MemoryStore) History(device string) ([]CalibrationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.records[device]
	if len(history) == 0 {
		return nil, fmt.Errorf("device %s: %w", device, ErrCalibrationNotFound)
	}

	out := make([]CalibrationRecord, len(history))
	copy(out, history)

	return out, nil
}

// Devices returns the sorted device names with at least one record.
func (s *MemoryStore) Devices() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.records))
	for name := range s.records {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// SaveFile writes a store's full contents to a YAML file.
func SaveFile(path string, store Store) error {
	snapshot := make(map[string][]CalibrationRecord)
	for _, device := range store.Devices() {
		history, err := store.History(device)
		if err != nil {
			return err
		}
		snapshot[device] = history
	}

	data, err := yaml.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshaling calibration records: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing calibration file: %w", err)
	}

	return nil
}

// LoadFile reads calibration records from a YAML file into a fresh
// MemoryStore.
func LoadFile(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading calibration file: %w", err)
	}

	var snapshot map[string][]CalibrationRecord
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing calibration file: %w", err)
	}

	store := NewMemoryStore()
	for _, history := range snapshot {
		for _, record := range history {
			if err := store.Add(record); err != nil {
				return nil, err
			}
		}
	}

	return store, nil
}
