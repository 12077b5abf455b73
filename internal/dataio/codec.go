package dataio

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec identifies the compression applied to an array file.
type Codec uint8

// Supported codecs.
const (
	CodecNone Codec = iota
	CodecZstd
	CodecS2
	CodecLZ4
	CodecGzip
)

// String returns the codec name.
func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecZstd:
		return "zstd"
	case CodecS2:
		return "s2"
	case CodecLZ4:
		return "lz4"
	case CodecGzip:
		return "gzip"
	default:
		return fmt.Sprintf("Codec(%d)", uint8(c))
	}
}

// CodecForPath picks the codec from the file extension.
// Unknown extensions are read uncompressed.
func CodecForPath(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		return CodecZstd
	case ".s2":
		return CodecS2
	case ".lz4":
		return CodecLZ4
	case ".gz":
		return CodecGzip
	default:
		return CodecNone
	}
}

// ParseCodec converts a codec name to a Codec.
func ParseCodec(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return CodecNone, nil
	case "zstd", "zst":
		return CodecZstd, nil
	case "s2":
		return CodecS2, nil
	case "lz4":
		return CodecLZ4, nil
	case "gzip", "gz":
		return CodecGzip, nil
	default:
		return CodecNone, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

// decompressor wraps r with the stream decoder for c.
// The returned closer releases decoder resources; it does not close r.
func decompressor(c Codec, r io.Reader) (io.Reader, func(), error) {
	switch c {
	case CodecNone:
		return r, func() {}, nil
	case CodecZstd:
		dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, nil, fmt.Errorf("zstd: %w", err)
		}
		return dec, dec.Close, nil
	case CodecS2:
		return s2.NewReader(r), func() {}, nil
	case CodecLZ4:
		return lz4.NewReader(r), func() {}, nil
	case CodecGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip: %w", err)
		}
		return zr, func() { _ = zr.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownCodec, c)
	}
}

// compressor wraps w with the stream encoder for c. Close must be called on
// the returned writer to flush it; w itself is left open.
func compressor(c Codec, w io.Writer) (io.WriteCloser, error) {
	switch c {
	case CodecNone:
		return nopWriteCloser{w}, nil
	case CodecZstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return enc, nil
	case CodecS2:
		return s2.NewWriter(w), nil
	case CodecLZ4:
		return lz4.NewWriter(w), nil
	case CodecGzip:
		return gzip.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCodec, c)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
