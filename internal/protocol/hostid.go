package protocol

import (
	"encoding/binary"
	"hash/fnv"
	"strings"
)

// FallbackStableID is used when a device has no identity of its own.
const FallbackStableID uint32 = 0xCAFEBABE

// HostID is the 2-byte pseudo-address a fixture remembers when paired.
type HostID [2]byte

// DeriveHostID maps a stable 32-bit identifier to a host id: the CRC16 of
// its four little-endian bytes, most significant byte first.
//
// The mapping must never change. Fixtures only respond to the host id they
// were paired with. Only 16 bits survive, so distinct ids can collide.
func DeriveHostID(stableID uint32) HostID {
	var raw [4]byte
	binary.LittleEndian.PutUint32(raw[:], stableID)
	crc := CRC16(raw[:], len(raw), 0)
	return HostID{byte(crc >> 8), byte(crc)}
}

// String returns the host id as "xx:xx"
func (h HostID) String() string {
	return hexSpaced(h[:1]) + ":" + hexSpaced(h[1:])
}

// ObjectID converts an entity name to snake_case object id form:
// lowercase, spaces to underscores, anything outside [a-z0-9_-] to '_'.
func ObjectID(name string) string {
	var sb strings.Builder
	sb.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		switch {
		case r == ' ':
			sb.WriteByte('_')
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// StableIDFromObjectID hashes an entity name with 32-bit FNV-1, the same
// identity a LampSmart ESPHome node derives for an entity of that name.
// An empty name yields FallbackStableID.
func StableIDFromObjectID(name string) uint32 {
	if name == "" {
		return FallbackStableID
	}
	h := fnv.New32()
	_, _ = h.Write([]byte(ObjectID(name)))
	return h.Sum32()
}
