//go:build linux

package radio

import (
	"encoding/binary"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// Raw HCI socket options (include/net/bluetooth/hci_sock.h)
const (
	solHCI    = 0
	hciFilter = 2
)

const hciReadTimeout = 2 * time.Second

type hciSocket struct {
	fd int
}

func (s *hciSocket) Read(b []byte) (int, error) {
	n, err := unix.Read(s.fd, b)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *hciSocket) Write(b []byte) (int, error) {
	return unix.Write(s.fd, b)
}

func (s *hciSocket) Close() error {
	return unix.Close(s.fd)
}

// eventFilter builds a struct hci_ufilter passing only command completion
// events.
func eventFilter() []byte {
	b := make([]byte, 16)
	binary.LittleEndian.PutUint32(b[0:], 1<<hciEventPkt)
	binary.LittleEndian.PutUint32(b[4:], 1<<evtCommandComplete|1<<evtCommandStatus)
	return b
}

// OpenHCI opens controller hci<index> on a raw HCI channel. The caller needs
// CAP_NET_RAW.
func OpenHCI(index int) (*HCIAdvertiser, error) {
	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.BTPROTO_HCI)
	if err != nil {
		return nil, fmt.Errorf("open HCI socket: %w", err)
	}

	sa := &unix.SockaddrHCI{Dev: uint16(index), Channel: unix.HCI_CHANNEL_RAW}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bind hci%d: %w", index, err)
	}

	if err := unix.SetsockoptString(fd, solHCI, hciFilter, string(eventFilter())); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("set HCI filter: %w", err)
	}

	tv := unix.NsecToTimeval(hciReadTimeout.Nanoseconds())
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("set HCI read timeout: %w", err)
	}

	return newHCIAdvertiser(&hciSocket{fd: fd}), nil
}
