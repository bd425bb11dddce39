package model

type MessageType string

const (
	MessageTypeStatusLine MessageType = "status_line"
)

// Envelope is transport-agnostic framing for stream payloads.
type Envelope struct {
	Type          MessageType `json:"type"`
	Host          string      `json:"host"`
	TimestampUnix int64       `json:"timestamp_unix"`
	Payload       any         `json:"payload"`
}
