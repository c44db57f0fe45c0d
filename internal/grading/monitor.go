package grading

import (
	"errors"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// Monitor reports whether the host is too busy to grade right now.
type Monitor interface {
	IsOverloaded() bool
}

// cpuSampleWindow is how long each CPU sample blocks the caller.
const cpuSampleWindow = 100 * time.Millisecond

// ResourceMonitor samples instantaneous CPU and memory utilization and
// compares both against a single configured limit.
type ResourceMonitor struct {
	limit float64

	cpuFraction func(window time.Duration) (float64, error)
	memFraction func() (float64, error)
}

func NewResourceMonitor(limit float64) *ResourceMonitor {
	return &ResourceMonitor{
		limit:       limit,
		cpuFraction: sampleCPU,
		memFraction: sampleMemory,
	}
}

// IsOverloaded returns true only when both the CPU and memory
// utilization fractions meet or exceed the limit. Each call takes a
// fresh sample; the CPU sample blocks for ~100ms.
func (m *ResourceMonitor) IsOverloaded() bool {
	cpuFrac, err := m.cpuFraction(cpuSampleWindow)
	if err != nil {
		// Fail open: a broken or unavailable sampler must never
		// leave grading permanently blocked.
		return false
	}
	memFrac, err := m.memFraction()
	if err != nil {
		return false
	}
	return cpuFrac >= m.limit && memFrac >= m.limit
}

func sampleCPU(window time.Duration) (float64, error) {
	percents, err := cpu.Percent(window, false)
	if err != nil {
		return 0, err
	}
	if len(percents) == 0 {
		return 0, errors.New("no cpu sample available")
	}
	return percents[0] / 100.0, nil
}

func sampleMemory() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent / 100.0, nil
}
