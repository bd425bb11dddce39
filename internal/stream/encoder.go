package stream

import (
	"time"

	jsoniter "github.com/json-iterator/go"

	"wmstatus/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type StatusFrame = model.StatusLine

func NewStatusFrame(host string, seq uint64, line string, at time.Time) StatusFrame {
	return StatusFrame{Host: host, Sequence: seq, TimestampUnix: at.UTC().Unix(), Line: line}
}

func NewStatusEnvelope(f StatusFrame) model.Envelope {
	return model.Envelope{
		Type:          model.MessageTypeStatusLine,
		Host:          f.Host,
		TimestampUnix: f.TimestampUnix,
		Payload:       f,
	}
}

func EncodeEnvelope(e model.Envelope) ([]byte, error) {
	return json.Marshal(e)
}

func DecodeEnvelope(data []byte, payload any) (model.Envelope, error) {
	var raw struct {
		Type          model.MessageType   `json:"type"`
		Host          string              `json:"host"`
		TimestampUnix int64               `json:"timestamp_unix"`
		Payload       jsoniter.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.Envelope{}, err
	}
	if payload != nil && len(raw.Payload) > 0 {
		if err := json.Unmarshal(raw.Payload, payload); err != nil {
			return model.Envelope{}, err
		}
	}
	return model.Envelope{Type: raw.Type, Host: raw.Host, TimestampUnix: raw.TimestampUnix, Payload: payload}, nil
}
