package codec

import (
	"fmt"

	"github.com/driftkv/driftkv/common"
)

// IMessageSerializer is the interface for all Message serializers
type IMessageSerializer interface {
	// Serialize serializes a Message into a byte array
	// It returns the serialized byte array and an error if any
	Serialize(msg common.Message) ([]byte, error)
	// Deserialize deserializes a byte array into a Message
	// It takes a byte array and a pointer to a Message as parameters
	// It returns an error if any
	Deserialize(b []byte, msg *common.Message) error
}

// NewSerializer creates a serializer by name ("binary" or "json")
func NewSerializer(name string) (IMessageSerializer, error) {
	switch name {
	case "binary":
		return NewBinarySerializer(), nil
	case "json":
		return NewJSONSerializer(), nil
	default:
		return nil, fmt.Errorf("invalid serializer %s", name)
	}
}
