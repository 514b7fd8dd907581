package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/ValentinKolb/expmap/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format.
//
// Layout: [MsgType:1][flags:1] followed by the present fields in the order of the flags below.
// Strings and byte slices are prefixed with a 4 byte big endian length, integers take 8 bytes.
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasKey     byte = 1 << 0
	hasTimeout byte = 1 << 1
	hasValue   byte = 1 << 2
	hasOk      byte = 1 << 3
	hasSize    byte = 1 << 4
	hasErr     byte = 1 << 5
	hasMeta    byte = 1 << 6
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	w := binaryWriter{buf: make([]byte, 2, b.sizeBytes(msg))}
	w.buf[0] = byte(msg.MsgType)

	var flags byte

	if msg.Key != "" {
		flags |= hasKey
		w.bytes([]byte(msg.Key))
	}
	if msg.TimeoutMs != 0 {
		flags |= hasTimeout
		w.int64(msg.TimeoutMs)
	}
	// nil and empty values are different for Get responses
	if msg.Value != nil {
		flags |= hasValue
		w.bytes(msg.Value)
	}
	if msg.Ok {
		// the flag itself carries the value
		flags |= hasOk
	}
	if msg.Size != 0 {
		flags |= hasSize
		w.int64(msg.Size)
	}
	if msg.Err != "" {
		flags |= hasErr
		w.bytes([]byte(msg.Err))
	}
	if msg.Meta != nil {
		flags |= hasMeta
		w.bytes(msg.Meta)
	}

	w.buf[1] = flags
	return w.buf, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + flags)
	if len(data) < 2 {
		return fmt.Errorf("data too short for message header")
	}

	flags := data[1]
	r := binaryReader{data: data, pos: 2}

	// fields that are absent on the wire are reset to their zero value
	*msg = common.Message{
		MsgType: common.MessageType(data[0]),
		Ok:      flags&hasOk != 0,
	}

	if flags&hasKey != 0 {
		key, err := r.bytes("key")
		if err != nil {
			return err
		}
		msg.Key = string(key)
	}
	if flags&hasTimeout != 0 {
		v, err := r.int64("timeout")
		if err != nil {
			return err
		}
		msg.TimeoutMs = v
	}
	if flags&hasValue != 0 {
		value, err := r.bytes("value")
		if err != nil {
			return err
		}
		msg.Value = value
	}
	if flags&hasSize != 0 {
		v, err := r.int64("size")
		if err != nil {
			return err
		}
		msg.Size = v
	}
	if flags&hasErr != 0 {
		e, err := r.bytes("error")
		if err != nil {
			return err
		}
		msg.Err = string(e)
	}
	if flags&hasMeta != 0 {
		meta, err := r.bytes("meta")
		if err != nil {
			return err
		}
		msg.Meta = meta
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
	if msg.TimeoutMs != 0 {
		size += 8
	}
	if msg.Value != nil {
		size += 4 + len(msg.Value)
	}
	if msg.Size != 0 {
		size += 8
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err)
	}
	if msg.Meta != nil {
		size += 4 + len(msg.Meta)
	}

	return size
}

// binaryWriter appends length prefixed fields to a buffer
type binaryWriter struct {
	buf []byte
}

func (w *binaryWriter) bytes(b []byte) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *binaryWriter) int64(v int64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, uint64(v))
}

// binaryReader reads fields written by binaryWriter and reports truncated input
type binaryReader struct {
	data []byte
	pos  int
}

// bytes returns a copy of the next length prefixed field, so the message does not alias data
func (r *binaryReader) bytes(field string) ([]byte, error) {
	if r.pos+4 > len(r.data) {
		return nil, fmt.Errorf("data too short for %s length", field)
	}
	n := int(binary.BigEndian.Uint32(r.data[r.pos : r.pos+4]))
	r.pos += 4

	if n < 0 || r.pos+n > len(r.data) {
		return nil, fmt.Errorf("data too short for %s data", field)
	}
	out := make([]byte, n)
	copy(out, r.data[r.pos:r.pos+n])
	r.pos += n
	return out, nil
}

func (r *binaryReader) int64(field string) (int64, error) {
	if r.pos+8 > len(r.data) {
		return 0, fmt.Errorf("data too short for %s", field)
	}
	v := int64(binary.BigEndian.Uint64(r.data[r.pos : r.pos+8]))
	r.pos += 8
	return v, nil
}
