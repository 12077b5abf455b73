// Package dataio reads and writes dense float arrays stored as text, with
// optional stream compression.
//
// Text format:
//
//	# comment lines start with '#'
//	1.0, 2.5, nan
//	0.5  0.25 NaN
//
// Each non-blank line is one row. Values are separated by commas or by
// whitespace. "nan" (any case) and an empty comma-separated field both mean a
// missing value. A single row yields shape [n]; several rows of equal length
// yield shape [rows, cols].
//
// The format stores rows and columns only. Write accepts any shape, but a
// single-row shape such as [1, n] reads back as [n], and shapes of rank above
// two read back as [product of leading dims, last dim].
package dataio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Common errors.
var (
	ErrEmpty        = errors.New("no values in input")
	ErrRaggedRows   = errors.New("rows have different lengths")
	ErrTooLarge     = errors.New("input exceeds size limit")
	ErrUnknownCodec = errors.New("unknown codec")
	ErrSyntax       = errors.New("invalid value")
	ErrShape        = errors.New("shape does not match values")
)

// Array is a dense row-major array of float64 values.
type Array struct {
	Shape    []int     // [n] or [rows, cols]
	Values   []float64 // Row-major values, NaN where missing
	Checksum uint64    // xxHash64 of the decompressed input
}

// NumElements returns the number of values.
func (a *Array) NumElements() int {
	return len(a.Values)
}

// CountNaN returns the number of missing values.
func (a *Array) CountNaN() int {
	n := 0
	for _, v := range a.Values {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}

// Float32 returns the values converted to float32.
func (a *Array) Float32() []float32 {
	out := make([]float32, len(a.Values))
	for i, v := range a.Values {
		out[i] = float32(v)
	}
	return out
}

// Float64 returns a copy of the values.
func (a *Array) Float64() []float64 {
	return append([]float64(nil), a.Values...)
}

// ReadFile reads an array from path. The codec is chosen from the file
// extension unless WithCodec is given.
func ReadFile(path string, opts ...Option) (*Array, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	opts = append([]Option{WithCodec(CodecForPath(path))}, opts...)
	arr, err := Read(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return arr, nil
}

// Read reads an array from r.
func Read(r io.Reader, opts ...Option) (*Array, error) {
	cfg := defaultConfig()
	if err := applyOptions(cfg, opts...); err != nil {
		return nil, err
	}

	src, release, err := decompressor(cfg.codec, r)
	if err != nil {
		return nil, err
	}
	defer release()

	data, err := io.ReadAll(io.LimitReader(src, cfg.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s input: %w", cfg.codec, err)
	}
	if int64(len(data)) > cfg.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, cfg.maxBytes)
	}

	arr, err := parse(data)
	if err != nil {
		return nil, err
	}
	arr.Checksum = xxhash.Sum64(data)

	return arr, nil
}

func parse(data []byte) (*Array, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), len(data)+1)

	var (
		values []float64
		rows   int
		cols   = -1
		lineNo int
	)

	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := splitFields(line)
		if cols >= 0 && len(fields) != cols {
			return nil, fmt.Errorf("%w: line %d has %d values, want %d", ErrRaggedRows, lineNo, len(fields), cols)
		}
		cols = len(fields)

		for _, field := range fields {
			v, err := parseValue(field)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			values = append(values, v)
		}
		rows++
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, ErrEmpty
	}

	shape := []int{rows, cols}
	if rows == 1 {
		shape = []int{cols}
	}

	return &Array{Shape: shape, Values: values}, nil
}

func splitFields(line string) []string {
	if !strings.Contains(line, ",") {
		return strings.Fields(line)
	}
	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

func parseValue(field string) (float64, error) {
	if field == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, fmt.Errorf("%w %q", ErrSyntax, field)
	}
	return v, nil
}

// Write encodes values with the given shape in the text format, compressed
// with codec. Shapes of rank above two are written with the last dimension
// as the row length.
//
// Every dimension must be positive and their product must equal len(values).
// An empty array is rejected with ErrEmpty since Read could not load it back.
func Write(w io.Writer, shape []int, values []float64, codec Codec) error {
	if len(values) == 0 {
		return ErrEmpty
	}
	if err := checkShape(shape, len(values)); err != nil {
		return err
	}

	cw, err := compressor(codec, w)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(cw)
	rowLen := len(values)
	if len(shape) > 1 {
		rowLen = shape[len(shape)-1]
	}

	buf := make([]byte, 0, 32)
	for i, v := range values {
		if i > 0 {
			if rowLen > 0 && i%rowLen == 0 {
				_ = bw.WriteByte('\n')
			} else {
				_, _ = bw.WriteString(", ")
			}
		}
		buf = strconv.AppendFloat(buf[:0], v, 'g', -1, 64)
		_, _ = bw.Write(buf)
	}
	_ = bw.WriteByte('\n')

	if err := bw.Flush(); err != nil {
		return err
	}
	return cw.Close()
}

func checkShape(shape []int, n int) error {
	if len(shape) == 0 {
		return fmt.Errorf("%w: empty shape for %d values", ErrShape, n)
	}
	size := 1
	for i, dim := range shape {
		if dim <= 0 {
			return fmt.Errorf("%w: dimension %d is %d", ErrShape, i, dim)
		}
		size *= dim
	}
	if size != n {
		return fmt.Errorf("%w: shape %v holds %d values, got %d", ErrShape, shape, size, n)
	}
	return nil
}

// WriteFile writes an array to path, compressed according to its extension.
func WriteFile(path string, shape []int, values []float64) error {
	if len(values) == 0 {
		return fmt.Errorf("%s: %w", path, ErrEmpty)
	}
	if err := checkShape(shape, len(values)); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, shape, values, CodecForPath(path)); err != nil {
		_ = f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
