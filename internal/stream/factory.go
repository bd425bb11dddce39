package stream

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"

	"wmstatus/internal/config"
)

func NewSinkFromConfig(cfg config.Config, tlsCfg *tls.Config, logger *slog.Logger) (Sink, error) {
	switch cfg.Sink.Mode {
	case config.SinkModeXSetRoot, "":
		return NewXSetRootSink(cfg.Sink.WriteTimeout, logger), nil
	case config.SinkModeStdout:
		return NewWriterSink(os.Stdout), nil
	case config.SinkModeGRPC:
		return NewGRPCClient(
			cfg.Sink.GRPCAddr,
			tlsCfg,
			cfg.Sink.Token,
			cfg.Sink.GRPCMethod,
			cfg.Hostname,
			logger,
		), nil
	case config.SinkModeWebSocket:
		return NewWebSocketClient(
			cfg.Sink.WSURL,
			cfg.Sink.Token,
			cfg.Hostname,
			tlsCfg,
			cfg.Sink.WriteTimeout,
			cfg.Sink.PingInterval,
			logger,
		), nil
	default:
		return nil, fmt.Errorf("unsupported sink mode %q", cfg.Sink.Mode)
	}
}
