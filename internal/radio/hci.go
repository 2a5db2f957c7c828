package radio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/muurk/lampsmart/internal/logging"
	"go.uber.org/zap"
)

// HCI packet indicators
const (
	hciCommandPkt = 0x01
	hciEventPkt   = 0x04
)

// HCI events
const (
	evtCommandComplete = 0x0E
	evtCommandStatus   = 0x0F
)

const ogfLE = 0x08

// LE controller commands
const (
	opLESetAdvertisingParameters = ogfLE<<10 | 0x0006
	opLESetAdvertisingData       = ogfLE<<10 | 0x0008
	opLESetAdvertiseEnable       = ogfLE<<10 | 0x000A
)

var opNames = map[uint16]string{
	opLESetAdvertisingParameters: "LE Set Advertising Parameters",
	opLESetAdvertisingData:       "LE Set Advertising Data",
	opLESetAdvertiseEnable:       "LE Set Advertise Enable",
}

// maxEventsPerCommand bounds how many unrelated events are skipped while
// waiting for a command's completion.
const maxEventsPerCommand = 32

// StatusError is a non-zero HCI status returned for a command.
type StatusError struct {
	Opcode uint16
	Status uint8
}

func (e *StatusError) Error() string {
	name := opNames[e.Opcode]
	if name == "" {
		name = fmt.Sprintf("opcode 0x%04X", e.Opcode)
	}
	return fmt.Sprintf("HCI command '%s' returned status 0x%02X", name, e.Status)
}

// ErrNoCompletion is returned when the controller never answers a command.
var ErrNoCompletion = errors.New("no command completion event from controller")

func marshalCommand(op uint16, params []byte) []byte {
	b := make([]byte, 4+len(params))
	b[0] = hciCommandPkt
	binary.LittleEndian.PutUint16(b[1:], op)
	b[3] = byte(len(params))
	copy(b[4:], params)
	return b
}

func marshalAdvParams(p Params) []byte {
	b := make([]byte, 15)
	binary.LittleEndian.PutUint16(b[0:], p.IntervalMin)
	binary.LittleEndian.PutUint16(b[2:], p.IntervalMax)
	b[4] = p.Type
	b[5] = p.OwnAddressType
	b[6] = p.PeerAddrType
	// BD_ADDR goes on the wire least significant byte first
	for i := 0; i < 6; i++ {
		b[7+i] = p.PeerAddr[5-i]
	}
	b[13] = p.ChannelMap
	b[14] = p.FilterPolicy
	return b
}

func marshalAdvData(payload Payload) []byte {
	b := make([]byte, 1+MaxAdvertisingDataLength)
	b[0] = MaxAdvertisingDataLength
	copy(b[1:], payload[:])
	return b
}

func marshalAdvEnable(on bool) []byte {
	if on {
		return []byte{0x01}
	}
	return []byte{0x00}
}

// commandResult is the outcome of a Command Complete or Command Status event.
type commandResult struct {
	opcode uint16
	status uint8
}

// parseEvent decodes an HCI packet read from the socket. ok is false for
// packets that are not command completions.
func parseEvent(b []byte) (res commandResult, ok bool, err error) {
	if len(b) < 3 || b[0] != hciEventPkt {
		return res, false, nil
	}
	code, plen := b[1], int(b[2])
	params := b[3:]
	if len(params) < plen {
		return res, false, fmt.Errorf("truncated HCI event 0x%02X: %d of %d bytes", code, len(params), plen)
	}
	params = params[:plen]

	switch code {
	case evtCommandComplete:
		// num_hci_command_packets, opcode, return parameters (status first)
		if len(params) < 4 {
			return res, false, fmt.Errorf("short command complete event: %d bytes", len(params))
		}
		res.opcode = binary.LittleEndian.Uint16(params[1:])
		res.status = params[3]
		return res, true, nil
	case evtCommandStatus:
		// status, num_hci_command_packets, opcode
		if len(params) < 4 {
			return res, false, fmt.Errorf("short command status event: %d bytes", len(params))
		}
		res.status = params[0]
		res.opcode = binary.LittleEndian.Uint16(params[2:])
		return res, true, nil
	}
	return res, false, nil
}

// HCIAdvertiser advertises through a Bluetooth HCI socket.
type HCIAdvertiser struct {
	mu     sync.Mutex
	dev    io.ReadWriteCloser
	closed bool
	buf    []byte
}

func newHCIAdvertiser(dev io.ReadWriteCloser) *HCIAdvertiser {
	return &HCIAdvertiser{dev: dev, buf: make([]byte, 260)}
}

// exec sends one command and waits for its completion event.
func (a *HCIAdvertiser) exec(op uint16, params []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}

	raw := marshalCommand(op, params)
	logging.LogRawBytes("hci <", raw)
	n, err := a.dev.Write(raw)
	if err != nil {
		return fmt.Errorf("write %s: %w", opNames[op], err)
	}
	if n != len(raw) {
		return fmt.Errorf("short write for %s: %d of %d bytes", opNames[op], n, len(raw))
	}

	for i := 0; i < maxEventsPerCommand; i++ {
		n, err := a.dev.Read(a.buf)
		if err != nil {
			return fmt.Errorf("read completion for %s: %w", opNames[op], err)
		}
		logging.LogRawBytes("hci >", a.buf[:n])

		res, ok, err := parseEvent(a.buf[:n])
		if err != nil {
			logging.Debug("Ignoring malformed HCI event", zap.Error(err))
			continue
		}
		if !ok || res.opcode != op {
			continue
		}
		if res.status != 0 {
			return &StatusError{Opcode: op, Status: res.status}
		}
		return nil
	}
	return fmt.Errorf("%s: %w", opNames[op], ErrNoCompletion)
}

// Configure sets advertising parameters then advertising data.
func (a *HCIAdvertiser) Configure(payload Payload, params Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	if err := a.exec(opLESetAdvertisingParameters, marshalAdvParams(params)); err != nil {
		return err
	}
	return a.exec(opLESetAdvertisingData, marshalAdvData(payload))
}

// Start enables advertising.
func (a *HCIAdvertiser) Start() error {
	return a.exec(opLESetAdvertiseEnable, marshalAdvEnable(true))
}

// Stop disables advertising.
func (a *HCIAdvertiser) Stop() error {
	return a.exec(opLESetAdvertiseEnable, marshalAdvEnable(false))
}

// Close releases the socket. Advertising is disabled first on a best-effort
// basis so the controller does not keep broadcasting the last command.
func (a *HCIAdvertiser) Close() error {
	_ = a.Stop()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	return a.dev.Close()
}
