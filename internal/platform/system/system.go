package system

import (
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// GetSystemMemoryUsage returns the system memory usage percentage.
func GetSystemMemoryUsage() (float64, error) {
	stats, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return stats.UsedPercent, nil
}

// GetSystemCPUUsage returns the system CPU usage percentage since boot.
func GetSystemCPUUsage() (float64, error) {
	percents, err := cpu.Percent(0, false)
	if err != nil {
		return 0, err
	}
	if len(percents) == 0 {
		return 0, nil
	}
	return percents[0], nil
}
