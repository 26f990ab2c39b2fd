package byteio

import "hash/crc32"

// CRC32 computes the ISO-3309 (zlib/gzip polynomial) CRC32 checksum used by
// the optional event footer, matching Go's standard IEEE table.
func CRC32(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}
