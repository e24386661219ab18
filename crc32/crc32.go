/*
Package crc32 implements the 32-bit cyclic redundancy check, or CRC-32,
checksum used to protect raw raster containers.

It uses the standard CRC-32 normal polynomial but, unlike hash/crc32, processes
bits most significant first without reflecting the input or output. This is
the variant commonly known as CRC-32/BZIP2.
*/
package crc32

import crc "hash/crc32"

// Size of a CRC-32 checksum in bytes.
const Size = crc.Size

func makeTable(poly uint32) *crc.Table {
	t := new(crc.Table)
	for i := 0; i < 256; i++ {
		crc := uint32(i << 24)
		for j := 0; j < 8; j++ {
			if crc&0x80000000 != 0 {
				crc = crc<<1 ^ poly
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return t
}

const polynomial = 0x04c11db7

var table = makeTable(polynomial)

func update(crc uint32, tab *crc.Table, p []byte) uint32 {
	crc = ^crc
	for _, v := range p {
		crc = crc<<8 ^ tab[byte(crc>>24)^v]
	}
	return ^crc
}

// Update returns the result of adding the bytes in p to the crc, so a
// checksum can be built up over several writes.
func Update(crc uint32, p []byte) uint32 {
	return update(crc, table, p)
}

// Checksum returns the CRC-32 checksum of data.
func Checksum(data []byte) uint32 { return Update(0, data) }
