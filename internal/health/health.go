// Package health samples host vitals for the API and status broadcasts.
package health

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// Snapshot is one point-in-time reading of host vitals. Fields that could
// not be sampled are zero.
type Snapshot struct {
	CPUPercent    float64 `json:"cpu_percent" doc:"CPU utilization 0..100"`
	MemoryPercent float64 `json:"memory_percent" doc:"Memory utilization 0..100"`
	MemoryUsedMB  uint64  `json:"memory_used_mb" doc:"Memory in use, MiB"`
	MemoryTotalMB uint64  `json:"memory_total_mb" doc:"Total memory, MiB"`
	DiskPercent   float64 `json:"disk_percent" doc:"Root filesystem utilization 0..100"`
	DiskFreeGB    float64 `json:"disk_free_gb" doc:"Root filesystem free space, GiB"`
	UptimeSeconds uint64  `json:"uptime_seconds" doc:"Host uptime"`
	CPUTempC      float64 `json:"cpu_temp_c,omitempty" doc:"CPU temperature, Celsius, 0 when unavailable"`
	SampledAt     string  `json:"sampled_at" doc:"Sample timestamp"`
}

// Sample reads current host vitals. Individual probe failures leave their
// fields zero rather than failing the whole snapshot.
func Sample() Snapshot {
	s := Snapshot{SampledAt: time.Now().UTC().Format(time.RFC3339)}

	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		s.CPUPercent = round1(pct[0])
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		s.MemoryPercent = round1(vm.UsedPercent)
		s.MemoryUsedMB = vm.Used / (1 << 20)
		s.MemoryTotalMB = vm.Total / (1 << 20)
	}
	if du, err := disk.Usage("/"); err == nil {
		s.DiskPercent = round1(du.UsedPercent)
		s.DiskFreeGB = round1(float64(du.Free) / (1 << 30))
	}
	if up, err := host.Uptime(); err == nil {
		s.UptimeSeconds = up
	}
	s.CPUTempC = cpuTemp()
	return s
}

// cpuTemp reads the SoC thermal zone directly; gopsutil's sensor support is
// spotty on Pi kernels.
func cpuTemp() float64 {
	data, err := os.ReadFile("/sys/class/thermal/thermal_zone0/temp")
	if err != nil {
		return 0
	}
	milli, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return round1(float64(milli) / 1000)
}

func round1(f float64) float64 {
	return float64(int(f*10+0.5)) / 10
}
