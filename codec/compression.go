package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression names the algorithm an artifact is stored with.
type Compression string

const (
	// CompressionNone stores the artifact as is.
	CompressionNone Compression = "none"
	// CompressionZSTD stores a single zstd frame.
	CompressionZSTD Compression = "zstd"
	// CompressionLZ4 stores an LZ4 block behind an 8 byte size header.
	CompressionLZ4 Compression = "lz4"
)

// ErrUnknownCompression is returned for unsupported compression names.
var ErrUnknownCompression = errors.New("codec: unknown compression")

// ErrCorrupt is returned when compressed data cannot be decoded.
var ErrCorrupt = errors.New("codec: corrupt compressed data")

// ParseCompression maps a manifest value to a Compression.
// The empty string means none.
func ParseCompression(s string) (Compression, error) {
	switch Compression(s) {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionZSTD, CompressionLZ4:
		return Compression(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCompression, s)
	}
}

// Extension returns the conventional file suffix for c.
func (c Compression) Extension() string {
	switch c {
	case CompressionZSTD:
		return ".zst"
	case CompressionLZ4:
		return ".lz4"
	default:
		return ""
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// lz4 block header: [UncompressedSize uint32][CompressedSize uint32].
// CompressedSize == 0 means the payload is stored uncompressed.
const lz4HeaderSize = 8

// Compress encodes data with c.
func Compress(c Compression, data []byte) ([]byte, error) {
	switch c {
	case "", CompressionNone:
		return data, nil
	case CompressionZSTD:
		enc := getZstdEncoder()
		defer zstdEncoderPool.Put(enc)
		return enc.EncodeAll(data, nil), nil
	case CompressionLZ4:
		return compressLZ4(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCompression, string(c))
	}
}

// Decompress decodes data previously produced by Compress with c.
func Decompress(c Compression, data []byte) ([]byte, error) {
	switch c {
	case "", CompressionNone:
		return data, nil
	case CompressionZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		return out, nil
	case CompressionLZ4:
		return decompressLZ4(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCompression, string(c))
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	buf := make([]byte, lz4HeaderSize+lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, buf[lz4HeaderSize:], nil)
	if err != nil {
		return nil, err
	}

	binary.LittleEndian.PutUint32(buf[0:], uint32(len(data)))

	// Incompressible input is stored raw.
	if n == 0 || n >= len(data) {
		binary.LittleEndian.PutUint32(buf[4:], 0)
		buf = append(buf[:lz4HeaderSize], data...)
		return buf, nil
	}

	binary.LittleEndian.PutUint32(buf[4:], uint32(n))
	return buf[:lz4HeaderSize+n], nil
}

func decompressLZ4(data []byte) ([]byte, error) {
	if len(data) < lz4HeaderSize {
		return nil, fmt.Errorf("%w: block too small for header", ErrCorrupt)
	}

	size := binary.LittleEndian.Uint32(data[0:])
	compressed := binary.LittleEndian.Uint32(data[4:])
	payload := data[lz4HeaderSize:]

	if compressed == 0 {
		if uint32(len(payload)) != size {
			return nil, fmt.Errorf("%w: raw block size mismatch", ErrCorrupt)
		}
		return payload, nil
	}

	if uint32(len(payload)) != compressed {
		return nil, fmt.Errorf("%w: compressed block size mismatch", ErrCorrupt)
	}

	out := make([]byte, size)
	n, err := lz4.UncompressBlock(payload, out)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if uint32(n) != size {
		return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
	}
	return out, nil
}
