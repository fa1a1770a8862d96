package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFinalizeComputesReportedMax(t *testing.T) {
	r := &Result{RawMax: 22, SafetyMultiplier: 1.10}
	r.Finalize()
	// ceil(22 * 1.10) = ceil(24.2) = 25
	assert.Equal(t, 25, r.ReportedMax)
}

func TestFinalizeComputesAvailableStack(t *testing.T) {
	r := &Result{RAMSize: 2048, DataSize: 256}
	r.Finalize()
	assert.Equal(t, 1792, r.AvailableStack)
}

func TestFinalizeExactMultipleNeedsNoRoundingUp(t *testing.T) {
	r := &Result{RawMax: 10, SafetyMultiplier: 2.0}
	r.Finalize()
	assert.Equal(t, 20, r.ReportedMax)
}

func TestFinalizeZeroSafetyMultiplierIsZero(t *testing.T) {
	r := &Result{RawMax: 100, SafetyMultiplier: 0}
	r.Finalize()
	assert.Equal(t, 0, r.ReportedMax)
}
