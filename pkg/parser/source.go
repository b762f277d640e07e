package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies how log data is compressed.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

var (
	magicGzip = []byte{0x1F, 0x8B}
	magicZstd = []byte{0x28, 0xB5, 0x2F, 0xFD}
	magicLZ4  = []byte{0x04, 0x22, 0x4D, 0x18}
)

// DetectCompression inspects the leading magic bytes of data.
func DetectCompression(data []byte) Compression {
	switch {
	case bytes.HasPrefix(data, magicGzip):
		return CompressionGzip
	case bytes.HasPrefix(data, magicZstd):
		return CompressionZstd
	case bytes.HasPrefix(data, magicLZ4):
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// Decompress returns the uncompressed content of data. Uncompressed input
// is returned as is.
func Decompress(data []byte) ([]byte, Compression, error) {
	c := DetectCompression(data)
	switch c {
	case CompressionGzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, c, fmt.Errorf("opening gzip stream: %w", err)
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, c, fmt.Errorf("reading gzip stream: %w", err)
		}
		return out, c, nil

	case CompressionZstd:
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, c, fmt.Errorf("creating zstd decoder: %w", err)
		}
		defer dec.Close()
		out, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, c, fmt.Errorf("reading zstd stream: %w", err)
		}
		return out, c, nil

	case CompressionLZ4:
		out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, c, fmt.Errorf("reading lz4 stream: %w", err)
		}
		return out, c, nil
	}
	return data, c, nil
}

// ReadFile reads a whole log file into memory and decompresses it. The file
// is closed before ReadFile returns.
func ReadFile(ctx context.Context, path string) ([]byte, Compression, error) {
	if err := ctx.Err(); err != nil {
		return nil, CompressionNone, err
	}
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return nil, CompressionNone, fmt.Errorf("reading log file %s: %w", path, err)
	}
	out, c, err := Decompress(data)
	if err != nil {
		return nil, c, fmt.Errorf("decompressing %s: %w", path, err)
	}
	return out, c, nil
}
