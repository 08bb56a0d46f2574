package hireAuth

import (
	"io"

	internalaudit "github.com/MrEthical07/hireAuth/internal/audit"
)

// AuditEvent is one security-relevant outcome emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events from a single dispatcher goroutine.
type AuditSink = internalaudit.Sink

// NoOpSink drops audit events.
type NoOpSink = internalaudit.NoOpSink

type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes one JSON object per event and line.
type JSONWriterSink = internalaudit.JSONWriterSink

func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
