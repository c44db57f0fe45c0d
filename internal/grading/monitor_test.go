package grading

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func monitorWith(limit, cpuFrac, memFrac float64, cpuErr, memErr error) *ResourceMonitor {
	m := NewResourceMonitor(limit)
	m.cpuFraction = func(time.Duration) (float64, error) { return cpuFrac, cpuErr }
	m.memFraction = func() (float64, error) { return memFrac, memErr }
	return m
}

func TestIsOverloadedRequiresBoth(t *testing.T) {
	tests := []struct {
		name     string
		cpu, mem float64
		want     bool
	}{
		{"both above", 0.5, 0.5, true},
		{"both exactly at limit", 0.2, 0.2, true},
		{"only cpu above", 0.5, 0.1, false},
		{"only mem above", 0.1, 0.5, false},
		{"both below", 0.1, 0.1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := monitorWith(0.2, tt.cpu, tt.mem, nil, nil)
			assert.Equal(t, tt.want, m.IsOverloaded())
		})
	}
}

func TestIsOverloadedFailsOpen(t *testing.T) {
	sampleErr := errors.New("procfs unavailable")

	m := monitorWith(0.2, 0.9, 0.9, sampleErr, nil)
	assert.False(t, m.IsOverloaded(), "cpu sampling error must report not overloaded")

	m = monitorWith(0.2, 0.9, 0.9, nil, sampleErr)
	assert.False(t, m.IsOverloaded(), "memory sampling error must report not overloaded")
}
