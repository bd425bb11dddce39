package collector

import (
	"fmt"
	"log/slog"
	"slices"

	gnet "github.com/shirou/gopsutil/v4/net"

	"wmstatus/internal/config"
	"wmstatus/internal/layout"
	"wmstatus/internal/sampler"
	"wmstatus/internal/telemetry"
)

// ModuleSet maps each active placeholder kind to its sampler. Built once at
// startup and owned by the Scheduler afterwards.
type ModuleSet map[layout.Kind]sampler.Sampler

var listInterfaces = func() ([]string, error) {
	stats, err := gnet.Interfaces()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(stats))
	for _, st := range stats {
		names = append(names, st.Name)
	}
	return names, nil
}

// BuildModules instantiates a sampler for every kind the template uses and
// nothing else.
func BuildModules(cfg config.Config, tpl *layout.Template, metrics *telemetry.Metrics, logger *slog.Logger) (ModuleSet, error) {
	set := make(ModuleSet, len(tpl.Kinds()))
	for _, k := range tpl.Kinds() {
		switch k {
		case layout.KindCPU:
			set[k] = sampler.NewCPU(cfg.ProcPath("stat"), cfg.Icon(config.IconCPU))
		case layout.KindMemory:
			set[k] = sampler.NewMemory(cfg.ProcPath("meminfo"), cfg.Icon(config.IconMemory))
		case layout.KindNetwork:
			if cfg.NetInterface == "" {
				return nil, fmt.Errorf("%s module requires a network interface", k)
			}
			checkInterface(cfg.NetInterface, logger)
			set[k] = sampler.NewNetwork(cfg.ProcPath("net/dev"), cfg.NetInterface, cfg.Icon(config.IconNetRx), cfg.Icon(config.IconNetTx))
		case layout.KindBattery:
			set[k] = sampler.NewBattery(cfg.BatteryPath, cfg.Icon(config.IconBattery))
		case layout.KindWeather:
			url := cfg.WeatherURL()
			if url == "" {
				return nil, fmt.Errorf("%s module requires a request URL or city and API key", k)
			}
			w := sampler.NewWeather(url, cfg.Icon(config.IconWeather), cfg.Weather.TTL, cfg.Weather.Timeout)
			w.OnFetch(metrics.WeatherFetched)
			set[k] = w
		case layout.KindDateTime:
			set[k] = sampler.NewDateTime(cfg.Icon(config.IconDateTime))
		default:
			return nil, fmt.Errorf("no sampler for module %q", k)
		}
	}
	metrics.SetActiveModules(len(set))
	return set, nil
}

// checkInterface only warns: the interface may come up after we start, and
// the network module renders the fallback until it does.
func checkInterface(name string, logger *slog.Logger) {
	names, err := listInterfaces()
	if err != nil {
		logger.Debug("list network interfaces failed", "error", err)
		return
	}
	if !slices.Contains(names, name) {
		logger.Warn("configured network interface not found", "interface", name, "available", names)
	}
}
