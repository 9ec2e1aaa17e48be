package codec

import (
	"encoding/json"

	"github.com/driftkv/driftkv/common"
)

// NewJSONSerializer creates a new serializer using json encoding
func NewJSONSerializer() IMessageSerializer {
	return &jsonSerializerImpl{}
}

// jsonSerializerImpl implements the IMessageSerializer interface using json encoding
type jsonSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.IMessageSerializer)
// --------------------------------------------------------------------------

func (j jsonSerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	return json.Marshal(msg)
}

func (j jsonSerializerImpl) Deserialize(b []byte, msg *common.Message) error {
	return json.Unmarshal(b, msg)
}
