package model

// StatusLine is one rendered status line as published to remote sinks.
type StatusLine struct {
	Host          string `json:"host"`
	Sequence      uint64 `json:"sequence"`
	TimestampUnix int64  `json:"timestamp_unix"`
	Line          string `json:"line"`
}
