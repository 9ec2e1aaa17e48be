package codec

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func TestLWWRoundTrip(t *testing.T) {
	c := NewLWWCodec(1024)

	values := []LWWValue{
		{Timestamp: 0, Payload: []byte{}},
		{Timestamp: 1, Payload: []byte("bar")},
		{Timestamp: 42, Payload: []byte{0x00, 0xff, 0x10}},
		{Timestamp: math.MaxInt64, Payload: bytes.Repeat([]byte("x"), 1024)},
	}

	for i, v := range values {
		data, err := c.Encode(v)
		if err != nil {
			t.Fatalf("Failed to encode value %d: %v", i, err)
		}

		result, err := c.Decode(data)
		if err != nil {
			t.Fatalf("Failed to decode value %d: %v", i, err)
		}

		if result.Timestamp != v.Timestamp {
			t.Errorf("Value %d: timestamp %d doesn't match original %d", i, result.Timestamp, v.Timestamp)
		}
		if !bytes.Equal(result.Payload, v.Payload) {
			t.Errorf("Value %d: payload doesn't match after round trip", i)
		}
	}
}

func TestLWWEncodeTooLarge(t *testing.T) {
	c := NewLWWCodec(16)

	_, err := c.Encode(LWWValue{Timestamp: 1, Payload: make([]byte, 17)})
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("Expected ErrTooLarge, got %v", err)
	}

	// Exactly at the limit must succeed
	if _, err := c.Encode(LWWValue{Timestamp: 1, Payload: make([]byte, 16)}); err != nil {
		t.Errorf("Encoding at the limit failed: %v", err)
	}
}

func TestLWWDecodeErrors(t *testing.T) {
	c := NewLWWCodec(1024)

	valid, err := c.Encode(LWWValue{Timestamp: 7, Payload: []byte("payload")})
	if err != nil {
		t.Fatalf("Failed to encode test value: %v", err)
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", []byte{}, ErrTruncated},
		{"header only partial", valid[:8], ErrTruncated},
		{"payload cut short", valid[:len(valid)-2], ErrTruncated},
		{"trailing bytes", append(append([]byte{}, valid...), 0x00), ErrMalformed},
		{"overflowing timestamp", func() []byte {
			b := append([]byte{}, valid...)
			b[0] = 0xff
			return b
		}(), ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Decode(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestMergeDeterminism(t *testing.T) {
	tests := []struct {
		name string
		a, b LWWValue
		want LWWValue
	}{
		{
			"greater timestamp wins",
			LWWValue{Timestamp: 2, Payload: []byte("new")},
			LWWValue{Timestamp: 1, Payload: []byte("old")},
			LWWValue{Timestamp: 2, Payload: []byte("new")},
		},
		{
			"equal timestamps break ties by payload",
			LWWValue{Timestamp: 5, Payload: []byte("aaa")},
			LWWValue{Timestamp: 5, Payload: []byte("bbb")},
			LWWValue{Timestamp: 5, Payload: []byte("bbb")},
		},
		{
			"identical values",
			LWWValue{Timestamp: 5, Payload: []byte("same")},
			LWWValue{Timestamp: 5, Payload: []byte("same")},
			LWWValue{Timestamp: 5, Payload: []byte("same")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Merge must be independent of argument order
			for _, got := range []LWWValue{Merge(tt.a, tt.b), Merge(tt.b, tt.a)} {
				if got.Timestamp != tt.want.Timestamp || !bytes.Equal(got.Payload, tt.want.Payload) {
					t.Errorf("Merge returned {%d %q}, want {%d %q}",
						got.Timestamp, got.Payload, tt.want.Timestamp, tt.want.Payload)
				}
			}
		})
	}
}

func TestClockMonotonic(t *testing.T) {
	clock := NewClock()

	var last uint64
	for i := 0; i < 1000; i++ {
		ts := clock.Next()
		if ts <= last {
			t.Fatalf("Timestamp %d is not greater than previous %d", ts, last)
		}
		last = ts
	}
}
