// Package codec reads and writes the compressed entities container: a
// 16-byte little-endian header holding the uncompressed size at offset 0x0
// and the compressed payload size at 0x8, followed by the payload. The
// container layout matches the game's files; the payload codec here is
// zstd rather than the game's proprietary one, so packed output is meant
// for this toolchain, not for the engine.
package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

const headerSize = 16

// IsCompressed reports whether data carries the container header: the
// payload length must equal the compressed size recorded in the header.
func IsCompressed(data []byte) bool {
	if len(data) < headerSize {
		return false
	}
	compressedSize := binary.LittleEndian.Uint64(data[8:16])
	return uint64(len(data)-headerSize) == compressedSize
}

// Decompress unpacks a container produced by Compress, verifying both
// header sizes.
func Decompress(data []byte) ([]byte, error) {
	if !IsCompressed(data) {
		return nil, fmt.Errorf("data is not a compressed entities container")
	}
	uncompressedSize := binary.LittleEndian.Uint64(data[0:8])

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	out, err := dec.DecodeAll(data[headerSize:], make([]byte, 0, uncompressedSize))
	if err != nil {
		return nil, fmt.Errorf("decompress payload: %w", err)
	}
	if uint64(len(out)) != uncompressedSize {
		return nil, fmt.Errorf("decompressed size mismatch: header says %d, got %d", uncompressedSize, len(out))
	}
	return out, nil
}

// Compress packs data into a container.
func Compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()

	payload := enc.EncodeAll(data, nil)

	out := make([]byte, headerSize, headerSize+len(payload))
	binary.LittleEndian.PutUint64(out[0:8], uint64(len(data)))
	binary.LittleEndian.PutUint64(out[8:16], uint64(len(payload)))
	return append(out, payload...), nil
}
