package serializer

import (
	"encoding/json"

	"github.com/ValentinKolb/expmap/rpc/common"
)

// NewJSONSerializer creates a new serializer using json encoding.
// Message types are encoded by name ("put", "get", ...), which makes the payloads readable with curl.
func NewJSONSerializer() IRPCSerializer {
	return &jsonSerializerImpl{}
}

// jsonSerializerImpl implements the IRPCSerializer interface using json encoding
type jsonSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (j jsonSerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	return json.Marshal(msg)
}

func (j jsonSerializerImpl) Deserialize(b []byte, msg *common.Message) error {
	// omitted fields must not keep values of a previously decoded message
	*msg = common.Message{}
	return json.Unmarshal(b, msg)
}
