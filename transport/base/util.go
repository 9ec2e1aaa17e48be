package base

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
)

// maxFrameSize bounds the body of a single frame. A peer declaring more is
// treated as a broken stream since there is no way to resynchronize.
const maxFrameSize = 64 << 20

// frameHeaderSize is 4 bytes content length + 8 bytes correlation id
const frameHeaderSize = 12

// writeFrame writes a frame to the connection with the format:
// - 4 bytes: data length (uint32, big endian)
// - 8 bytes: correlation id (uint64, big endian)
// - N bytes: data payload
func writeFrame(conn net.Conn, requestID uint64, data []byte) error {
	header := make([]byte, frameHeaderSize)
	binary.BigEndian.PutUint32(header[:4], uint32(len(data)))
	binary.BigEndian.PutUint64(header[4:12], requestID)

	b := net.Buffers{header, data}
	_, err := b.WriteTo(conn)
	return err
}

// readFrame reads a single frame from the connection. It returns the
// correlation id and the frame body.
func readFrame(conn net.Conn) (uint64, []byte, error) {
	header := make([]byte, frameHeaderSize)
	if _, err := io.ReadFull(conn, header); err != nil {
		return 0, nil, err
	}

	contentLength := binary.BigEndian.Uint32(header[:4])
	requestID := binary.BigEndian.Uint64(header[4:12])

	if contentLength > maxFrameSize {
		return 0, nil, fmt.Errorf("frame of %d bytes exceeds limit", contentLength)
	}

	// If no data, return empty slice
	if contentLength == 0 {
		return requestID, []byte{}, nil
	}

	data := make([]byte, contentLength)
	if _, err := io.ReadFull(conn, data); err != nil {
		return 0, nil, err
	}

	return requestID, data, nil
}
