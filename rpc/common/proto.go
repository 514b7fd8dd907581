package common

import (
	"encoding/json"
	"fmt"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// General fields
	Key       string `json:"key,omitempty"`        // Used for: Put, Get, Remove, Has, TTL
	Value     []byte `json:"value,omitempty"`      // Used for: Put (request), Get (response)
	TimeoutMs int64  `json:"timeout_ms,omitempty"` // Used for: Put (request), TTL (response)

	// Response only fields
	Ok   bool   `json:"ok,omitempty"`   // Used for: Get, Remove, Has, TTL responses
	Size int64  `json:"size,omitempty"` // Used for: Size responses
	Err  string `json:"err,omitempty"`  // Empty if no error, otherwise contains the error message

	// Meta information
	Meta []byte `json:"meta,omitempty"` // Used for: Info (response, JSON encoded), Custom
}

func (m *Message) String() string {
	return fmt.Sprintf("Message{Type: %s, Key: %q, Value: %d bytes, TimeoutMs: %d, Ok: %t, Size: %d, Err: %q}",
		m.MsgType, m.Key, len(m.Value), m.TimeoutMs, m.Ok, m.Size, m.Err)
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// responseErr builds a response of the given type carrying err (if any)
func responseErr(t MessageType, err error) *Message {
	msg := &Message{
		MsgType: t,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewPutRequest creates a new Put request
func NewPutRequest(key string, value []byte, timeoutMs int64) *Message {
	return &Message{
		MsgType:   MsgTPut,
		Key:       key,
		Value:     value,
		TimeoutMs: timeoutMs,
	}
}

// NewPutResponse creates a new Put response
func NewPutResponse(err error) *Message {
	return responseErr(MsgTPut, err)
}

// NewGetRequest creates a new Get request
func NewGetRequest(key string) *Message {
	return &Message{
		MsgType: MsgTGet,
		Key:     key,
	}
}

// NewGetResponse creates a new Get response
func NewGetResponse(value []byte, ok bool, err error) *Message {
	msg := responseErr(MsgTGet, err)
	msg.Ok = ok
	msg.Value = value
	return msg
}

// NewRemoveRequest creates a new Remove request
func NewRemoveRequest(key string) *Message {
	return &Message{
		MsgType: MsgTRemove,
		Key:     key,
	}
}

// NewRemoveResponse creates a new Remove response
func NewRemoveResponse(removed bool, err error) *Message {
	msg := responseErr(MsgTRemove, err)
	msg.Ok = removed
	return msg
}

// NewHasRequest creates a new Has request
func NewHasRequest(key string) *Message {
	return &Message{
		MsgType: MsgTHas,
		Key:     key,
	}
}

// NewHasResponse creates a new Has response
func NewHasResponse(ok bool, err error) *Message {
	msg := responseErr(MsgTHas, err)
	msg.Ok = ok
	return msg
}

// NewTTLRequest creates a new TTL request
func NewTTLRequest(key string) *Message {
	return &Message{
		MsgType: MsgTTTL,
		Key:     key,
	}
}

// NewTTLResponse creates a new TTL response, the remaining lifetime travels in TimeoutMs
func NewTTLResponse(remainingMs int64, ok bool, err error) *Message {
	msg := responseErr(MsgTTTL, err)
	msg.Ok = ok
	msg.TimeoutMs = remainingMs
	return msg
}

// NewSizeRequest creates a new Size request
func NewSizeRequest() *Message {
	return &Message{
		MsgType: MsgTSize,
	}
}

// NewSizeResponse creates a new Size response
func NewSizeResponse(size int64, err error) *Message {
	msg := responseErr(MsgTSize, err)
	msg.Size = size
	return msg
}

// NewInfoRequest creates a new Info request
func NewInfoRequest() *Message {
	return &Message{
		MsgType: MsgTInfo,
	}
}

// NewInfoResponse creates a new Info response, info is the JSON encoded map info
func NewInfoResponse(info []byte, err error) *Message {
	msg := responseErr(MsgTInfo, err)
	msg.Meta = info
	return msg
}

// NewCustomRequest creates a new Custom request
func NewCustomRequest(meta []byte) *Message {
	return &Message{
		MsgType: MsgTCustom,
		Meta:    meta,
	}
}

// NewCustomResponse creates a new Custom response
func NewCustomResponse(meta []byte, err error) *Message {
	msg := responseErr(MsgTCustom, err)
	msg.Meta = meta
	return msg
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

// messageTypeNames maps every known MessageType to its wire name
var messageTypeNames = map[MessageType]string{
	MsgTSuccess: "success",
	MsgTError:   "error",
	MsgTPut:     "put",
	MsgTGet:     "get",
	MsgTRemove:  "remove",
	MsgTHas:     "has",
	MsgTTTL:     "ttl",
	MsgTSize:    "size",
	MsgTInfo:    "info",
	MsgTCustom:  "custom",
}

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseMessageType converts a wire name back to a MessageType
func ParseMessageType(s string) (MessageType, error) {
	for t, name := range messageTypeNames {
		if name == s {
			return t, nil
		}
	}
	return MsgTUnknown, fmt.Errorf("unknown message type: %s", s)
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	parsed, err := ParseMessageType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// IExpireMap operations

	MsgTPut    // Put a key-value pair with a timeout
	MsgTGet    // Get a value by key
	MsgTRemove // Remove a key-value pair
	MsgTHas    // Check if a live key exists
	MsgTTTL    // Get the remaining lifetime of a key
	MsgTSize   // Get the number of entries
	MsgTInfo   // Get statistics about the map

	// Custom operations

	MsgTCustom // Custom operation type
)
