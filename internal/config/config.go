package config

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"wmstatus/internal/layout"
)

type SinkMode string

const (
	SinkModeXSetRoot  SinkMode = "xsetroot"
	SinkModeStdout    SinkMode = "stdout"
	SinkModeGRPC      SinkMode = "grpc"
	SinkModeWebSocket SinkMode = "websocket"

	EnvPrefix = "WMSTATUS_"

	weatherURLFormat = "https://api.openweathermap.org/data/2.5/weather?id=%s&units=metric&appid=%s"
)

// Icon keys. The network module has one icon per direction.
const (
	IconCPU      = "cpu"
	IconMemory   = "memory"
	IconNetRx    = "netspeed_rx"
	IconNetTx    = "netspeed_tx"
	IconBattery  = "battery"
	IconWeather  = "weather"
	IconDateTime = "datetime"
)

var defaultIcons = map[string]string{
	IconCPU:      "\ue223",
	IconMemory:   "\ue021",
	IconNetRx:    "\ue061",
	IconNetTx:    "\ue060",
	IconBattery:  "",
	IconWeather:  "\ue01d",
	IconDateTime: "\ue225",
}

type Config struct {
	Template        string            `yaml:"template"`
	Interval        time.Duration     `yaml:"interval"`
	ProcRoot        string            `yaml:"proc_root"`
	NetInterface    string            `yaml:"net_interface"`
	BatteryPath     string            `yaml:"battery_path"`
	Weather         WeatherConfig     `yaml:"weather"`
	Sink            SinkConfig        `yaml:"sink"`
	Icons           map[string]string `yaml:"icons"`
	NoIcons         bool              `yaml:"no_icons"`
	Log             LogConfig         `yaml:"log"`
	ProbeListenAddr string            `yaml:"probe_addr"`
	ShutdownTimeout time.Duration     `yaml:"shutdown_timeout"`
	Hostname        string            `yaml:"-"`
}

type WeatherConfig struct {
	URL     string        `yaml:"url"`
	City    string        `yaml:"city"`
	APIKey  string        `yaml:"api_key"`
	TTL     time.Duration `yaml:"ttl"`
	Timeout time.Duration `yaml:"timeout"`
}

type SinkConfig struct {
	Mode         SinkMode      `yaml:"mode"`
	GRPCAddr     string        `yaml:"grpc_addr"`
	GRPCMethod   string        `yaml:"grpc_method"`
	WSURL        string        `yaml:"ws_url"`
	Token        string        `yaml:"token"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	PingInterval time.Duration `yaml:"ping_interval"`
	TLS          TLSConfig     `yaml:"tls"`
}

type TLSConfig struct {
	Enabled    bool   `yaml:"enabled"`
	SkipVerify bool   `yaml:"skip_verify"`
	CAPath     string `yaml:"ca_path"`
	CertPath   string `yaml:"cert_path"`
	KeyPath    string `yaml:"key_path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

func Default() Config {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown-host"
	}
	return Config{
		Template:    "{weather} {netspeed} {cpu} {memory} {datetime}",
		Interval:    time.Second,
		ProcRoot:    "/proc",
		BatteryPath: "/sys/class/power_supply/BAT0/capacity",
		Weather: WeatherConfig{
			TTL:     300 * time.Second,
			Timeout: 10 * time.Second,
		},
		Sink: SinkConfig{
			Mode:         SinkModeXSetRoot,
			GRPCMethod:   "/wmstatus.v1.StatusService/StreamStatus",
			WriteTimeout: 5 * time.Second,
			PingInterval: 10 * time.Second,
		},
		Log:             LogConfig{Level: "info"},
		ShutdownTimeout: 5 * time.Second,
		Hostname:        hostname,
	}
}

// DefaultPath is $XDG_CONFIG_HOME/wmstatus/config.yaml, or the platform
// equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "wmstatus", "config.yaml")
}

// Load layers defaults, the YAML file at path (skipped when path is empty)
// and WMSTATUS_* environment variables, then validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(c *Config) {
	c.Template = env("TEMPLATE", c.Template)
	c.Interval = envDuration("INTERVAL", c.Interval)
	c.ProcRoot = env("PROC_ROOT", c.ProcRoot)
	c.NetInterface = env("NET_INTERFACE", c.NetInterface)
	c.BatteryPath = env("BATTERY_PATH", c.BatteryPath)
	c.Weather.URL = env("WEATHER_URL", c.Weather.URL)
	c.Weather.City = env("WEATHER_CITY", c.Weather.City)
	c.Weather.APIKey = env("WEATHER_API_KEY", c.Weather.APIKey)
	c.Weather.TTL = envDuration("WEATHER_TTL", c.Weather.TTL)
	c.Weather.Timeout = envDuration("WEATHER_TIMEOUT", c.Weather.Timeout)
	c.Sink.Mode = SinkMode(strings.ToLower(env("SINK_MODE", string(c.Sink.Mode))))
	c.Sink.GRPCAddr = env("SINK_GRPC_ADDR", c.Sink.GRPCAddr)
	c.Sink.GRPCMethod = env("SINK_GRPC_METHOD", c.Sink.GRPCMethod)
	c.Sink.WSURL = env("SINK_WS_URL", c.Sink.WSURL)
	c.Sink.Token = env("SINK_TOKEN", c.Sink.Token)
	c.Sink.WriteTimeout = envDuration("SINK_WRITE_TIMEOUT", c.Sink.WriteTimeout)
	c.Sink.PingInterval = envDuration("SINK_PING_INTERVAL", c.Sink.PingInterval)
	c.Sink.TLS.Enabled = envBool("TLS_ENABLED", c.Sink.TLS.Enabled)
	c.Sink.TLS.SkipVerify = envBool("TLS_SKIP_VERIFY", c.Sink.TLS.SkipVerify)
	c.Sink.TLS.CAPath = env("TLS_CA_PATH", c.Sink.TLS.CAPath)
	c.Sink.TLS.CertPath = env("TLS_CERT_PATH", c.Sink.TLS.CertPath)
	c.Sink.TLS.KeyPath = env("TLS_KEY_PATH", c.Sink.TLS.KeyPath)
	c.NoIcons = envBool("NO_ICONS", c.NoIcons)
	c.Log.Level = strings.ToLower(env("LOG_LEVEL", c.Log.Level))
	c.Log.JSON = envBool("LOG_JSON", c.Log.JSON)
	c.ProbeListenAddr = env("PROBE_ADDR", c.ProbeListenAddr)
	c.ShutdownTimeout = envDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Template) == "" {
		return errors.New("template must not be empty")
	}
	if c.Interval <= 0 {
		return errors.New("interval must be > 0")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown_timeout must be > 0")
	}

	tpl := layout.Parse(c.Template)
	if tpl.Has(layout.KindWeather) {
		if c.WeatherURL() == "" {
			return errors.New("weather module requires weather.url or weather.city and weather.api_key")
		}
		if c.Weather.TTL <= 0 || c.Weather.Timeout <= 0 {
			return errors.New("weather.ttl and weather.timeout must be > 0")
		}
	}
	if tpl.Has(layout.KindNetwork) && strings.TrimSpace(c.NetInterface) == "" {
		return errors.New("netspeed module requires net_interface")
	}
	if tpl.Has(layout.KindBattery) && strings.TrimSpace(c.BatteryPath) == "" {
		return errors.New("battery module requires battery_path")
	}
	if (tpl.Has(layout.KindCPU) || tpl.Has(layout.KindMemory) || tpl.Has(layout.KindNetwork)) && c.ProcRoot == "" {
		return errors.New("proc_root must not be empty")
	}

	switch c.Sink.Mode {
	case SinkModeXSetRoot, SinkModeStdout:
	case SinkModeGRPC:
		if c.Sink.GRPCAddr == "" {
			return errors.New("sink.grpc_addr is required for grpc mode")
		}
		if strings.TrimSpace(c.Sink.GRPCMethod) == "" {
			return errors.New("sink.grpc_method is required for grpc mode")
		}
	case SinkModeWebSocket:
		if c.Sink.WSURL == "" {
			return errors.New("sink.ws_url is required for websocket mode")
		}
	default:
		return fmt.Errorf("unsupported sink mode %q", c.Sink.Mode)
	}
	return nil
}

// WeatherURL returns weather.url as is, or builds an OpenWeatherMap request
// from city id and API key. Empty when neither is configured.
func (c Config) WeatherURL() string {
	if u := strings.TrimSpace(c.Weather.URL); u != "" {
		return u
	}
	if c.Weather.City == "" || c.Weather.APIKey == "" {
		return ""
	}
	return fmt.Sprintf(weatherURLFormat, url.QueryEscape(c.Weather.City), url.QueryEscape(c.Weather.APIKey))
}

func (c Config) Icon(key string) string {
	if c.NoIcons {
		return ""
	}
	if v, ok := c.Icons[key]; ok {
		return v
	}
	return defaultIcons[key]
}

func (c Config) ProcPath(name string) string {
	return filepath.Join(c.ProcRoot, name)
}

func (c Config) TLSConfig() (*tls.Config, error) {
	t := c.Sink.TLS
	if !t.Enabled {
		return nil, nil
	}
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12, InsecureSkipVerify: t.SkipVerify}
	if t.CAPath != "" {
		caBytes, err := os.ReadFile(t.CAPath)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caBytes) {
			return nil, errors.New("append CA cert failed")
		}
		tlsCfg.RootCAs = pool
	}
	if t.CertPath != "" || t.KeyPath != "" {
		if t.CertPath == "" || t.KeyPath == "" {
			return nil, errors.New("both TLS cert and key are required")
		}
		crt, err := tls.LoadX509KeyPair(t.CertPath, t.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("load mTLS cert/key: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{crt}
	}
	return tlsCfg, nil
}

func env(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(EnvPrefix + key))
	if v == "" {
		return fallback
	}
	return v
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(EnvPrefix + key)))
	if v == "" {
		return fallback
	}
	switch v {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(EnvPrefix + key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		if secs, convErr := strconv.Atoi(v); convErr == nil {
			return time.Duration(secs) * time.Second
		}
		return fallback
	}
	return d
}
