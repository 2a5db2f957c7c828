package protocol

// CRC-16/CCITT as used by the fixture firmware: polynomial 0x1021, initial
// value 0xFFFF, no reflection, no final xor.
const (
	crcPolynomial = 0x1021
	crcInitial    = 0xFFFF
)

var crcTable = makeCRCTable(crcPolynomial)

// makeCRCTable builds the MSB-first lookup table for poly.
func makeCRCTable(poly uint16) [256]uint16 {
	var table [256]uint16
	for b := 0; b < 256; b++ {
		r := uint16(b) << 8
		for i := 0; i < 8; i++ {
			if r&0x8000 != 0 {
				r = (r << 1) ^ poly
			} else {
				r <<= 1
			}
		}
		table[b] = r
	}
	return table
}

// CRC16 computes the checksum of length bytes of buf starting at offset.
//
// An offset/length pair outside buf is a programming error and panics like
// any other out-of-range slice access.
func CRC16(buf []byte, length, offset int) uint16 {
	crc := uint16(crcInitial)
	for _, b := range buf[offset : offset+length] {
		crc = crcTable[byte(crc>>8)^b] ^ (crc << 8)
	}
	return crc
}
