package version

type GetVersionResponse struct {
	Host            string `json:"host"`
	Version         string `json:"version"`
	SinkMode        string `json:"sink_mode"`
	ProbeListenAddr string `json:"probe_listen_addr"`
	CheckedAtUnix   int64  `json:"checked_at_unix"`
}
