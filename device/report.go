package device

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quantafoundry/quantum-devices-framework/operation"
)

// Report is the record of one Execute call: the circuit that ran, the
// aggregated results, and the error if execution failed.
type Report struct {
	ID          string       `json:"id"`
	Device      string       `json:"device"`
	Operations  []string     `json:"operations"`
	Observables []string     `json:"observables"`
	Results     []float64    `json:"results"`
	Timestamp   *time.Time   `json:"timestamp"`
	Err         *ReportError `json:"error"`
}

// NewReport creates a report for a completed (or failed) execution.
func NewReport(
	device string,
	ops []*operation.Operation,
	observables []*operation.Observable,
	results []float64,
	err error,
) Report {
	now := time.Now()
	r := Report{
		ID:          uuid.New().String(),
		Device:      device,
		Operations:  make([]string, 0, len(ops)),
		Observables: make([]string, 0, len(observables)),
		Results:     append([]float64(nil), results...),
		Timestamp:   &now,
	}
	for _, op := range ops {
		r.Operations = append(r.Operations, op.String())
	}
	for _, ob := range observables {
		r.Observables = append(r.Observables, ob.String())
	}
	if err != nil {
		r.Err = &ReportError{Message: err.Error()}
	}

	return r
}

// ReportError carries an execution error with an exported message field so
// reports marshal cleanly to JSON.
type ReportError struct {
	Message string `json:"message"`
}

// Error implements the error interface.
func (e ReportError) Error() string {
	return e.Message
}

var ErrReportNotFound = errors.New("report not found")

// Reporter stores execution reports. Implementations may keep them in
// memory, on disk, or ship them elsewhere.
type Reporter interface {
	AddReport(report Report) error
	GetReport(id string) (Report, error)
	GetReports() ([]Report, error)
}

// MemoryReporter stores reports in memory. It is safe for concurrent use.
type MemoryReporter struct {
	mu      sync.RWMutex
	reports []Report
}

// NewMemoryReporter creates an empty MemoryReporter.
func NewMemoryReporter() *MemoryReporter {
	return &MemoryReporter{}
}

// AddReport appends a report.
func (m *MemoryReporter) AddReport(report Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reports = append(m.reports, report)

	return nil
}

// GetReport returns a report by ID, or ErrReportNotFound.
func (m *MemoryReporter) GetReport(id string) (Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, report := range m.reports {
		if report.ID == id {
			return report, nil
		}
	}

	return Report{}, fmt.Errorf("report_id %s: %w", id, ErrReportNotFound)
}

// GetReports returns a copy of all stored reports in insertion order.
func (m *MemoryReporter) GetReports() ([]Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	reports := make([]Report, len(m.reports))
	copy(reports, m.reports)

	return reports, nil
}
