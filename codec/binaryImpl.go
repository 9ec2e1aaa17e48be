package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/driftkv/driftkv/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IMessageSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IMessageSerializer using a custom binary format
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasKey       byte = 1 << 0
	hasValue     byte = 1 << 1
	hasEndpoints byte = 1 << 2
	hasErrCode   byte = 1 << 3
	hasErr       byte = 1 << 4
)

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.IMessageSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	// Calculate total size needed
	totalSize := b.sizeBytes(msg)
	result := make([]byte, totalSize)

	// Write message type
	result[0] = byte(msg.MsgType)

	// Initialize flags byte
	var flags byte = 0

	// Set position for writing
	pos := 2 // Start after MsgType and flags

	// Handle Key
	if msg.Key != "" {
		flags |= hasKey
		keyBytes := []byte(msg.Key)
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(len(keyBytes)))
		pos += 4
		copy(result[pos:], keyBytes)
		pos += len(keyBytes)
	}

	// Handle Value
	if msg.Value != nil {
		flags |= hasValue
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(len(msg.Value)))
		pos += 4
		copy(result[pos:], msg.Value)
		pos += len(msg.Value)
	}

	// Handle Endpoints
	if msg.Endpoints != nil {
		flags |= hasEndpoints
		binary.BigEndian.PutUint16(result[pos:pos+2], uint16(len(msg.Endpoints)))
		pos += 2
		for _, endpoint := range msg.Endpoints {
			epBytes := []byte(endpoint)
			binary.BigEndian.PutUint16(result[pos:pos+2], uint16(len(epBytes)))
			pos += 2
			copy(result[pos:], epBytes)
			pos += len(epBytes)
		}
	}

	// Handle ErrCode
	if msg.ErrCode != common.ErrCodeNone {
		flags |= hasErrCode
		result[pos] = byte(msg.ErrCode)
		pos += 1
	}

	// Handle Err
	if msg.Err != "" {
		flags |= hasErr
		errBytes := []byte(msg.Err)
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(len(errBytes)))
		pos += 4
		copy(result[pos:], errBytes)
		pos += len(errBytes)
	}

	// Set flags byte after knowing which fields are present
	result[1] = flags

	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + flags)
	if len(data) < 2 {
		return fmt.Errorf("data too short for message header")
	}

	// Read message type
	msg.MsgType = common.MessageType(data[0])

	// Read flags
	flags := data[1]

	// Initialize read position
	pos := 2

	// Read Key if present
	if flags&hasKey != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for key length")
		}
		keyLen := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		pos += 4

		if pos+keyLen > len(data) {
			return fmt.Errorf("data too short for key data")
		}
		msg.Key = string(data[pos : pos+keyLen])
		pos += keyLen
	} else {
		msg.Key = ""
	}

	// Read Value if present
	if flags&hasValue != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for value length")
		}
		valueLen := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		pos += 4

		if pos+valueLen > len(data) {
			return fmt.Errorf("data too short for value data")
		}

		// Create an empty slice (not nil) if length is 0, allocate only if needed
		if msg.Value == nil || cap(msg.Value) < valueLen {
			msg.Value = make([]byte, valueLen)
		} else {
			msg.Value = msg.Value[:valueLen]
		}
		copy(msg.Value, data[pos:pos+valueLen])
		pos += valueLen
	} else {
		msg.Value = nil
	}

	// Read Endpoints if present
	if flags&hasEndpoints != 0 {
		if pos+2 > len(data) {
			return fmt.Errorf("data too short for endpoint count")
		}
		count := int(binary.BigEndian.Uint16(data[pos : pos+2]))
		pos += 2

		msg.Endpoints = make([]string, 0, count)
		for i := 0; i < count; i++ {
			if pos+2 > len(data) {
				return fmt.Errorf("data too short for endpoint length")
			}
			epLen := int(binary.BigEndian.Uint16(data[pos : pos+2]))
			pos += 2

			if pos+epLen > len(data) {
				return fmt.Errorf("data too short for endpoint data")
			}
			msg.Endpoints = append(msg.Endpoints, string(data[pos:pos+epLen]))
			pos += epLen
		}
	} else {
		msg.Endpoints = nil
	}

	// Read ErrCode if present
	if flags&hasErrCode != 0 {
		if pos+1 > len(data) {
			return fmt.Errorf("data too short for error code")
		}
		msg.ErrCode = common.ErrCode(data[pos])
		pos += 1
	} else {
		msg.ErrCode = common.ErrCodeNone
	}

	// Read Err if present
	if flags&hasErr != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for error length")
		}
		errLen := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		pos += 4

		if pos+errLen > len(data) {
			return fmt.Errorf("data too short for error data")
		}
		msg.Err = string(data[pos : pos+errLen])
		pos += errLen
	} else {
		msg.Err = ""
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	// 1 byte for MsgType + 1 byte for flags
	size := 2

	if msg.Key != "" {
		size += 4 + len(msg.Key)
	}
	if msg.Value != nil {
		size += 4 + len(msg.Value)
	}
	if msg.Endpoints != nil {
		size += 2
		for _, endpoint := range msg.Endpoints {
			size += 2 + len(endpoint)
		}
	}
	if msg.ErrCode != common.ErrCodeNone {
		size += 1
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err)
	}

	return size
}
