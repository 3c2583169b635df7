// Package iqfmt describes the raw sample formats that can cross the
// source-side framed-packet boundary and the final-output boundary of a
// pipeline run. Unlike the root sdr.SampleFormat family (which enumerates
// one concrete Go type per engine format), Format is a single table-driven
// tag: the bytes-per-pair, complex-ness, and scale/bias of every supported
// wire format are data, not a type per format.
package iqfmt

import "fmt"

// Format tags a raw wire sample format, as carried in a framed packet's
// format_id byte or a pipeline Config's sample_type/output sample format.
type Format uint8

const (
	// FormatUnknown marks an unset or invalid format tag.
	FormatUnknown Format = iota

	FormatU8
	FormatI8
	FormatU16
	FormatI16
	FormatU32
	FormatI32
	FormatF32
	FormatU8C
	FormatI8C
	FormatU16C
	FormatI16C
	FormatU32C
	FormatI32C
	FormatF32C
	FormatNuandQ4_11
)

type entry struct {
	name           string
	bytesPerScalar int
	complex        bool
	signed         bool
	float          bool
	scale          float32 // divisor applied after the midpoint bias, in the raw -> complex direction
	bias           float32 // subtracted before scaling, in the raw -> complex direction
}

var table = map[Format]entry{
	FormatU8:         {"U8", 1, false, false, false, 127.5, 127.5},
	FormatI8:         {"I8", 1, false, true, false, 127, 0},
	FormatU16:        {"U16", 2, false, false, false, 32767.5, 32767.5},
	FormatI16:        {"I16", 2, false, true, false, 32767, 0},
	FormatU32:        {"U32", 4, false, false, false, 2147483647.5, 2147483647.5},
	FormatI32:        {"I32", 4, false, true, false, 2147483647, 0},
	FormatF32:        {"F32", 4, false, true, true, 1, 0},
	FormatU8C:        {"U8C", 1, true, false, false, 127.5, 127.5},
	FormatI8C:        {"I8C", 1, true, true, false, 127, 0},
	FormatU16C:       {"U16C", 2, true, false, false, 32767.5, 32767.5},
	FormatI16C:       {"I16C", 2, true, true, false, 32767, 0},
	FormatU32C:       {"U32C", 4, true, false, false, 2147483647.5, 2147483647.5},
	FormatI32C:       {"I32C", 4, true, true, false, 2147483647, 0},
	FormatF32C:       {"F32C", 4, true, true, true, 1, 0},
	FormatNuandQ4_11: {"NuandQ4_11", 2, true, true, false, 2048, 0},
}

// String implements fmt.Stringer.
func (f Format) String() string {
	if e, ok := table[f]; ok {
		return e.name
	}
	return "Unknown"
}

// IsComplex reports whether this format carries both I and Q components
// per frame (true) or I-only (false).
func (f Format) IsComplex() bool {
	return table[f].complex
}

// BytesPerScalar is the size in bytes of a single I or Q component.
func (f Format) BytesPerScalar() int {
	e, ok := table[f]
	if !ok {
		return 0
	}
	return e.bytesPerScalar
}

// BytesPerPair is the number of bytes one frame (I/Q pair, or bare I sample
// for an I-only format) occupies on the wire.
func (f Format) BytesPerPair() int {
	e, ok := table[f]
	if !ok {
		return 0
	}
	if e.complex {
		return e.bytesPerScalar * 2
	}
	return e.bytesPerScalar
}

// Valid reports whether f is a recognized, non-FormatUnknown tag.
func (f Format) Valid() bool {
	_, ok := table[f]
	return ok
}

// ParseFormat looks up a Format by its String() name (case-sensitive,
// e.g. "I16C"), for decoding the configuration surface's sample_type /
// output format fields from flags or YAML.
func ParseFormat(name string) (Format, error) {
	for f, e := range table {
		if e.name == name {
			return f, nil
		}
	}
	return FormatUnknown, fmt.Errorf("iqfmt: unrecognized format name %q", name)
}

// ErrUnknownFormat is returned when a Format tag isn't recognized by this
// table.
type ErrUnknownFormat struct {
	Format Format
}

func (e ErrUnknownFormat) Error() string {
	return fmt.Sprintf("iqfmt: unrecognized format tag %d", uint8(e.Format))
}
