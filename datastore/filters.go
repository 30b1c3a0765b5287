package datastore

import "time"

// FilterFunc narrows a slice of calibration records. Filters are composable:
//
//	records := Filter(history,
//		ByMaxGateError("CNOT", 0.01),
//		Since(yesterday),
//	)
//
// Custom filters are plain functions of this type.
type FilterFunc func(records []CalibrationRecord) []CalibrationRecord

// Filter applies the given filters to the records in order.
func Filter(records []CalibrationRecord, filters ...FilterFunc) []CalibrationRecord {
	out := records
	for _, f := range filters {
		out = f(out)
	}

	return out
}

// recordFilter returns a filter that keeps records for which the predicate
// returns true.
func recordFilter(predicate func(record CalibrationRecord) bool) FilterFunc {
	return func(records []CalibrationRecord) []CalibrationRecord {
		filtered := make([]CalibrationRecord, 0, len(records))
		for _, record := range records {
			if predicate(record) {
				filtered = append(filtered, record)
			}
		}

		return filtered
	}
}

// ByDevice keeps records for the given device.
func ByDevice(device string) FilterFunc {
	return recordFilter(func(record CalibrationRecord) bool {
		return record.Device == device
	})
}

// Since keeps records updated at or after the given time.
func Since(t time.Time) FilterFunc {
	return recordFilter(func(record CalibrationRecord) bool {
		return !record.UpdatedAt.Before(t)
	})
}

// ByMaxGateError keeps records whose error rate for the given gate is known
// and at most maxError.
func ByMaxGateError(gate string, maxError float64) FilterFunc {
	return recordFilter(func(record CalibrationRecord) bool {
		rate, ok := record.GateErrors[gate]

		return ok && rate <= maxError
	})
}

// ByMinT1 keeps records where every known T1 time is at least minT1.
func ByMinT1(minT1 float64) FilterFunc {
	return recordFilter(func(record CalibrationRecord) bool {
		for _, t1 := range record.T1 {
			if t1 < minT1 {
				return false
			}
		}

		return len(record.T1) > 0
	})
}
