package webserver

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"

	"github.com/bozorplus/bozoradmin/pkg/metrics"
)

var startedAt = time.Now()

// status reports process health, host resources and trailing backend
// latency per resource. Exposed without auth so probes can hit it.
func (s *Server) status(c echo.Context) error {
	out := map[string]interface{}{
		"uptime_sec": int(time.Since(startedAt).Seconds()),
		"locale":     s.deps.Locale.Code(),
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		out["cpu_percent"] = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		out["mem_percent"] = vm.UsedPercent
		out["mem_total"] = vm.Total
	}
	if info, err := host.Info(); err == nil {
		out["hostname"] = info.Hostname
		out["os"] = info.Platform
	}

	window := 15 * time.Minute
	latency := map[string]metrics.Summary{}
	for _, resource := range []string{"product", "category", "unity", "order", "user", "banner"} {
		if sum := metrics.LatencySummary(resource, window); sum.Count > 0 {
			latency[resource] = sum
		}
	}
	out["backend_latency"] = latency

	return ok(c, out)
}
