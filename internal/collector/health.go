package collector

import (
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/cwj/useful_push/internal/config"
)

// ServerHealth 主机健康快照
type ServerHealth struct {
	CPUPercent    float64
	LoadAverage   [3]float64
	MemoryPercent float64
	MemoryUsedGB  float64
	MemoryTotalGB float64
	DiskPercent   float64
	DiskUsedGB    float64
	DiskTotalGB   float64
	UptimeHours   float64
}

const gb = 1 << 30

// GatherServerHealth 采样本机状态；CPU 采样耗时 1 秒。
// 个别指标拿不到时保持零值，不视为错误。
func GatherServerHealth() ServerHealth {
	var h ServerHealth

	if percents, err := cpu.Percent(time.Second, false); err == nil && len(percents) > 0 {
		h.CPUPercent = percents[0]
	}
	if avg, err := load.Avg(); err == nil {
		h.LoadAverage = [3]float64{avg.Load1, avg.Load5, avg.Load15}
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		h.MemoryPercent = vm.UsedPercent
		h.MemoryUsedGB = float64(vm.Used) / gb
		h.MemoryTotalGB = float64(vm.Total) / gb
	}
	if du, err := disk.Usage("/"); err == nil {
		h.DiskPercent = du.UsedPercent
		h.DiskUsedGB = float64(du.Used) / gb
		h.DiskTotalGB = float64(du.Total) / gb
	}
	if bootTS, err := host.BootTime(); err == nil {
		boot := time.Unix(int64(bootTS), 0).In(config.Location)
		h.UptimeHours = config.Now().Sub(boot).Hours()
	}
	return h
}
