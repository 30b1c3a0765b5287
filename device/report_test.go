package device

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantafoundry/quantum-devices-framework/operation"
)

func TestNewReport(t *testing.T) {
	t.Parallel()

	ops := []*operation.Operation{mustOp(t, "RX", []float64{0.543}, []int{0})}
	obs := []*operation.Observable{mustExpval(t, "PauliZ", 0)}

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		report := NewReport("default.qubit", ops, obs, []float64{0.25}, nil)

		assert.NotEmpty(t, report.ID)
		assert.Equal(t, "default.qubit", report.Device)
		assert.Equal(t, []string{"RX([0.543]; wires=[0])"}, report.Operations)
		assert.Len(t, report.Observables, 1)
		assert.Equal(t, []float64{0.25}, report.Results)
		require.NotNil(t, report.Timestamp)
		assert.Nil(t, report.Err)
	})

	t.Run("failure", func(t *testing.T) {
		t.Parallel()

		report := NewReport("default.qubit", ops, obs, nil, errors.New("hardware fault"))

		require.NotNil(t, report.Err)
		assert.Equal(t, "hardware fault", report.Err.Message)
		assert.EqualError(t, report.Err, "hardware fault")
	})

	t.Run("results are copied", func(t *testing.T) {
		t.Parallel()

		results := []float64{1, 2}
		report := NewReport("default.qubit", nil, nil, results, nil)
		results[0] = 99

		assert.Equal(t, []float64{1, 2}, report.Results)
	})
}

func TestMemoryReporter(t *testing.T) {
	t.Parallel()

	t.Run("add and get", func(t *testing.T) {
		t.Parallel()

		reporter := NewMemoryReporter()
		report := NewReport("default.qubit", nil, nil, []float64{1}, nil)
		require.NoError(t, reporter.AddReport(report))

		got, err := reporter.GetReport(report.ID)
		require.NoError(t, err)
		assert.Equal(t, report, got)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		reporter := NewMemoryReporter()
		_, err := reporter.GetReport("missing")
		require.ErrorIs(t, err, ErrReportNotFound)
	})

	t.Run("insertion order", func(t *testing.T) {
		t.Parallel()

		reporter := NewMemoryReporter()
		first := NewReport("default.qubit", nil, nil, []float64{1}, nil)
		second := NewReport("default.gaussian", nil, nil, []float64{2}, nil)
		require.NoError(t, reporter.AddReport(first))
		require.NoError(t, reporter.AddReport(second))

		reports, err := reporter.GetReports()
		require.NoError(t, err)
		require.Len(t, reports, 2)
		assert.Equal(t, first.ID, reports[0].ID)
		assert.Equal(t, second.ID, reports[1].ID)
	})
}
