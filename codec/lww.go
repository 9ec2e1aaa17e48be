package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// --------------------------------------------------------------------------
// LWW Value
// --------------------------------------------------------------------------

// LWWValue is a last-writer-wins value: payload bytes plus the logical
// timestamp assigned by the writer. When two values for the same key are
// compared, the one with the strictly greater timestamp wins.
type LWWValue struct {
	// Timestamp is the writer-assigned logical timestamp. It must fit into
	// an int64, the high bit is reserved.
	Timestamp uint64
	// Payload is the opaque value data
	Payload []byte
}

// Merge selects the winning value of a and b. The value with the strictly
// greater timestamp wins; ties are broken by byte-comparing the payloads
// (larger wins) so that the result is deterministic and independent of
// argument order.
func Merge(a, b LWWValue) LWWValue {
	if a.Timestamp > b.Timestamp {
		return a
	}
	if b.Timestamp > a.Timestamp {
		return b
	}
	if bytes.Compare(a.Payload, b.Payload) >= 0 {
		return a
	}
	return b
}

// --------------------------------------------------------------------------
// Codec Errors
// --------------------------------------------------------------------------

var (
	// ErrTruncated is returned by Decode when fewer bytes are present than
	// the declared length prefix requires
	ErrTruncated = errors.New("lww value truncated")
	// ErrMalformed is returned by Decode when a field violates its expected
	// shape (overflowing timestamp, trailing bytes)
	ErrMalformed = errors.New("lww value malformed")
	// ErrTooLarge is returned by Encode when the payload exceeds the
	// configured size limit
	ErrTooLarge = errors.New("lww value payload too large")
)

// --------------------------------------------------------------------------
// LWW Codec
// --------------------------------------------------------------------------

// lwwHeaderSize is the fixed prefix of an encoded value:
// 8 bytes timestamp + 4 bytes payload length (big endian)
const lwwHeaderSize = 12

// LWWCodec encodes and decodes LWW values to and from the wire format of
// the storage tier. Encoding is total for values within the configured
// payload size limit. Round-trip law: Decode(Encode(v)) == v.
type LWWCodec struct {
	maxValueSize int
}

// NewLWWCodec creates a new LWWCodec with the given payload size limit
func NewLWWCodec(maxValueSize int) *LWWCodec {
	return &LWWCodec{maxValueSize: maxValueSize}
}

// Encode serializes the value as [8B timestamp][4B length][payload].
// It fails with ErrTooLarge if the payload exceeds the configured limit.
func (c *LWWCodec) Encode(v LWWValue) ([]byte, error) {
	if len(v.Payload) > c.maxValueSize {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, len(v.Payload), c.maxValueSize)
	}
	if v.Timestamp > math.MaxInt64 {
		return nil, fmt.Errorf("%w: timestamp overflows int64", ErrMalformed)
	}

	result := make([]byte, lwwHeaderSize+len(v.Payload))
	binary.BigEndian.PutUint64(result[:8], v.Timestamp)
	binary.BigEndian.PutUint32(result[8:12], uint32(len(v.Payload)))
	copy(result[lwwHeaderSize:], v.Payload)
	return result, nil
}

// Decode parses an encoded value. It fails with ErrTruncated when fewer
// bytes are present than the declared length prefix requires and with
// ErrMalformed when a field violates its expected shape.
func (c *LWWCodec) Decode(data []byte) (LWWValue, error) {
	if len(data) < lwwHeaderSize {
		return LWWValue{}, fmt.Errorf("%w: %d bytes, want at least %d", ErrTruncated, len(data), lwwHeaderSize)
	}

	ts := binary.BigEndian.Uint64(data[:8])
	if ts > math.MaxInt64 {
		return LWWValue{}, fmt.Errorf("%w: timestamp overflows int64", ErrMalformed)
	}

	length := int(binary.BigEndian.Uint32(data[8:12]))
	if len(data)-lwwHeaderSize < length {
		return LWWValue{}, fmt.Errorf("%w: declared %d payload bytes, got %d", ErrTruncated, length, len(data)-lwwHeaderSize)
	}
	if len(data)-lwwHeaderSize > length {
		return LWWValue{}, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(data)-lwwHeaderSize-length)
	}

	payload := make([]byte, length)
	copy(payload, data[lwwHeaderSize:])
	return LWWValue{Timestamp: ts, Payload: payload}, nil
}
