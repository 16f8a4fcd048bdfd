// Package compress inflates compressed registry snapshots.
//
// Snapshots are normally gzip streams. zstd frames are accepted as well, since
// the registry builder can publish either; the format is detected from the
// leading magic bytes rather than from a file extension or header.
package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const (
	// DefaultMaxInflatedSize is the largest decompressed payload accepted (1GB)
	DefaultMaxInflatedSize = 1024 * 1024 * 1024
)

// ErrDecompression is matched by every error returned from Inflate
var ErrDecompression = errors.New("failed to decompress registry")

// Format identifies a compression container
type Format string

// Supported formats
const (
	FormatUnknown Format = ""
	FormatGzip    Format = "gzip"
	FormatZstd    Format = "zstd"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// DetectFormat returns the compression format of blob based on its magic bytes
func DetectFormat(blob []byte) Format {
	switch {
	case bytes.HasPrefix(blob, gzipMagic):
		return FormatGzip
	case bytes.HasPrefix(blob, zstdMagic):
		return FormatZstd
	default:
		return FormatUnknown
	}
}

// Decompressor inflates compressed blobs up to a size limit
type Decompressor struct {
	maxInflatedSize int64
}

// Option configures a Decompressor
type Option func(*Decompressor)

// WithMaxInflatedSize sets the largest decompressed payload accepted.
// Values <= 0 keep the default.
func WithMaxInflatedSize(size int64) Option {
	return func(d *Decompressor) {
		if size > 0 {
			d.maxInflatedSize = size
		}
	}
}

// NewDecompressor creates a Decompressor with the given options
func NewDecompressor(opts ...Option) *Decompressor {
	d := &Decompressor{
		maxInflatedSize: DefaultMaxInflatedSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Inflate decompresses blob using a default Decompressor
func Inflate(blob []byte) ([]byte, error) {
	return NewDecompressor().Inflate(blob)
}

// Inflate fully decompresses blob. Truncated, corrupt or oversized input fails
// with ErrDecompression; a partial buffer is never returned.
func (d *Decompressor) Inflate(blob []byte) ([]byte, error) {
	switch DetectFormat(blob) {
	case FormatGzip:
		return d.inflateGzip(blob)
	case FormatZstd:
		return d.inflateZstd(blob)
	default:
		return nil, fmt.Errorf("%w: unrecognized compression format", ErrDecompression)
	}
}

func (d *Decompressor) inflateGzip(blob []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecompression, err)
	}
	defer func() {
		_ = reader.Close()
	}()

	// Read one byte past the limit to detect oversized payloads
	data, err := io.ReadAll(io.LimitReader(reader, d.maxInflatedSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecompression, err)
	}
	if int64(len(data)) > d.maxInflatedSize {
		return nil, d.sizeError()
	}

	return data, nil
}

func (d *Decompressor) inflateZstd(blob []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(uint64(d.maxInflatedSize)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create zstd decoder: %w", ErrDecompression, err)
	}
	defer decoder.Close()

	data, err := decoder.DecodeAll(blob, nil)
	if err != nil {
		if errors.Is(err, zstd.ErrDecoderSizeExceeded) {
			return nil, d.sizeError()
		}
		return nil, fmt.Errorf("%w: %w", ErrDecompression, err)
	}
	if int64(len(data)) > d.maxInflatedSize {
		return nil, d.sizeError()
	}

	return data, nil
}

func (d *Decompressor) sizeError() error {
	return fmt.Errorf("%w: decompressed size exceeds maximum allowed size of %d bytes (%.2f MB)",
		ErrDecompression, d.maxInflatedSize, float64(d.maxInflatedSize)/(1024*1024))
}
