package server

import (
	"encoding/hex"
	"time"

	"github.com/muurk/lampsmart/internal/protocol"
	"github.com/muurk/lampsmart/internal/radio"
)

// Event is one transmission as seen by event subscribers.
type Event struct {
	Time    time.Time `json:"time"`
	Payload string    `json:"payload"` // Over-the-air bytes, hex
	Opcode  string    `json:"opcode,omitempty"`
	HostID  string    `json:"host_id,omitempty"`
	GroupID uint8     `json:"group_id"`
	Arg1    uint8     `json:"arg1"`
	Arg2    uint8     `json:"arg2"`
	Nonce   uint8     `json:"nonce"`
	HoldMS  int64     `json:"hold_ms"`
	Error   string    `json:"error,omitempty"`
}

// NewEvent decodes a transmission into an Event. Payloads that do not decode
// still produce an event carrying the raw bytes and the decode error.
func NewEvent(tr radio.Transmission) Event {
	ev := Event{
		Time:    tr.Started,
		Payload: hex.EncodeToString(tr.Payload[:]),
		HoldMS:  tr.Hold.Milliseconds(),
	}
	if tr.Err != nil {
		ev.Error = tr.Err.Error()
	}

	d, err := protocol.ParsePacket(tr.Payload[:])
	if d == nil {
		if ev.Error == "" && err != nil {
			ev.Error = err.Error()
		}
		return ev
	}
	ev.Opcode = d.Opcode.String()
	ev.HostID = d.HostID.String()
	ev.GroupID = d.GroupID
	ev.Arg1 = d.Arg1
	ev.Arg2 = d.Arg2
	ev.Nonce = d.Nonce
	return ev
}

// CommandRequest is the body of POST /api/devices/{name}/command.
type CommandRequest struct {
	Opcode string `json:"opcode"` // Name ("dim") or number ("0x21")
	Arg1   uint8  `json:"arg1"`
	Arg2   uint8  `json:"arg2"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Health is returned by /healthz.
type Health struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Devices     int    `json:"devices"`
	Subscribers int    `json:"subscribers"`
}
