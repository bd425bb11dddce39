package version

import (
	"time"

	"wmstatus/internal/config"
)

// Version is stamped at build time:
//
//	go build -ldflags "-X wmstatus/internal/agent/version.Version=v1.2.0"
var Version = "dev"

func Get(cfg config.Config) *GetVersionResponse {
	return &GetVersionResponse{
		Host:            cfg.Hostname,
		Version:         Version,
		SinkMode:        string(cfg.Sink.Mode),
		ProbeListenAddr: cfg.ProbeListenAddr,
		CheckedAtUnix:   time.Now().UTC().Unix(),
	}
}
