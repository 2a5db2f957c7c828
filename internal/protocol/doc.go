// Package protocol implements the LampSmart Pro BLE advertisement codec.
//
// LampSmart Pro fixtures (ceiling lights, fan lights) never connect to a
// controller. They passively scan for BLE advertisements that carry a
// scrambled 25-byte command message inside a manufacturer-specific AD
// structure. This package builds those advertisements and, for analysis,
// takes them apart again.
//
// # Frame Overview
//
// A packet is 32 bytes:
//
//	[0]      0x1F           Length indicator (not transmitted)
//	[1-3]    02 01 01       Flags AD structure
//	[4-5]    1B 03          Manufacturer AD header
//	[6-30]   message        Whitened, bit-reversed 25-byte message
//	[31]     0x00           Trailer
//
// The 25-byte message before transformation:
//
//	[0-10]   71 0F 55 AA 98 43 AF 0B 46 46 46   Preamble
//	[11]     opcode
//	[12]     host id byte 0
//	[13]     host id byte 1 (high nibble) | group id (low nibble)
//	[14]     arg1
//	[15]     arg2
//	[16]     0x83
//	[17]     nonce (random per send)
//	[18-22]  zero
//	[23-24]  CRC-16 over bytes 11-22 (big-endian)
//
// # Encoding Pipeline
//
//  1. Copy the template body into a Message and write the command fields.
//  2. CRC16 over 12 bytes starting at offset 11, stored at 23-24.
//  3. Reverse the bit order of every byte.
//  4. Whiten with the BLE LFSR, seeded with 83, aligned as if preceded by
//     13 bytes of radio framing.
//  5. Wrap with the template header and trailer.
//
// The receiving radio de-whitens in hardware, so the fixture firmware sees
// the bit-reversed message and undoes the reversal itself.
//
// # Usage Example - Encoding
//
//	host := protocol.DeriveHostID(protocol.StableIDFromObjectID("Kitchen Light"))
//	pkt := protocol.BuildPacket(protocol.OpcodeDim, host[0], host[1], 128, 0, 3)
//
//	// Byte 0 is a length indicator; the radio wants the remaining 31 bytes
//	payload := pkt.Payload()
//
// # Usage Example - Decoding
//
//	decoded, err := protocol.ParsePacket(pkt[:])
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(decoded)
//
// # Constants
//
// The whitening seed (83), buffer size (38) and offset (13) were recovered
// empirically from working fixtures. They are exported so tests can pin
// them, but packets must always be built with these exact values.
//
// # Thread Safety
//
// All functions are pure except BuildPacket, which draws its nonce from a
// goroutine-safe random source. All are safe for concurrent use.
package protocol
