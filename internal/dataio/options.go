package dataio

import "fmt"

// DefaultMaxBytes bounds the decompressed size of an input.
const DefaultMaxBytes = 256 * 1024 * 1024

type config struct {
	codec    Codec
	maxBytes int64
}

func defaultConfig() *config {
	return &config{
		codec:    CodecNone,
		maxBytes: DefaultMaxBytes,
	}
}

// Option configures Read and ReadFile.
type Option interface {
	apply(*config) error
}

type optionFunc func(*config) error

func (f optionFunc) apply(c *config) error {
	return f(c)
}

func applyOptions(c *config, opts ...Option) error {
	for _, opt := range opts {
		if err := opt.apply(c); err != nil {
			return err
		}
	}
	return nil
}

// WithCodec sets the codec used to decompress the input.
func WithCodec(codec Codec) Option {
	return optionFunc(func(c *config) error {
		if codec > CodecGzip {
			return fmt.Errorf("%w: %s", ErrUnknownCodec, codec)
		}
		c.codec = codec
		return nil
	})
}

// WithMaxBytes limits the decompressed input size.
func WithMaxBytes(n int64) Option {
	return optionFunc(func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("max bytes must be positive, got %d", n)
		}
		c.maxBytes = n
		return nil
	})
}
