package serializer

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/ValentinKolb/expmap/rpc/common"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON":   NewJSONSerializer,
	"GOB":    NewGOBSerializer,
	"Binary": NewBinarySerializer,
}

// testMessages creates a set of test messages with different fields filled
func testMessages() []common.Message {
	return []common.Message{
		// Basic message with just a type
		{MsgType: common.MsgTSuccess},

		// Put request
		*common.NewPutRequest("session:42", []byte("token"), 30_000),

		// Get response
		*common.NewGetResponse([]byte("token"), true, nil),

		// TTL response
		*common.NewTTLResponse(1234, true, nil),

		// Size response
		*common.NewSizeResponse(987654321, nil),

		// Error response
		*common.NewErrorResponse("map is closed"),

		// Message with all fields filled
		{
			MsgType:   common.MsgTCustom,
			Key:       "all-fields",
			Value:     []byte("value"),
			TimeoutMs: 60_000,
			Ok:        true,
			Size:      7,
			Err:       "some error",
			Meta:      []byte(`{"meta":true}`),
		},
	}
}

// TestSerializerRoundTrip tests that messages can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range messages {
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message %d: %v", i, err)
					continue
				}

				var result common.Message
				if err := serializer.Deserialize(data, &result); err != nil {
					t.Errorf("Failed to deserialize message %d: %v", i, err)
					continue
				}

				if !reflect.DeepEqual(msg, result) {
					t.Errorf("Message %d doesn't match after round trip:\nOriginal: %s\nResult:   %s",
						i, &msg, &result)
				}
			}
		})
	}
}

// TestMessageTypes tests each message type with each serializer
func TestMessageTypes(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			// MsgTUnknown has no wire name, JSON rejects it
			for msgType := common.MsgTSuccess; msgType <= common.MsgTCustom; msgType++ {
				msg := common.Message{MsgType: msgType}

				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message type %s: %v", msgType, err)
					continue
				}

				var result common.Message
				if err := serializer.Deserialize(data, &result); err != nil {
					t.Errorf("Failed to deserialize message type %s: %v", msgType, err)
					continue
				}

				if result.MsgType != msgType {
					t.Errorf("Message type doesn't match after round trip: Expected %s, got %s", msgType, result.MsgType)
				}
			}
		})
	}
}

// TestBinaryNilVersusEmpty checks that the binary format keeps nil and empty byte slices apart
func TestBinaryNilVersusEmpty(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name string
		msg  common.Message
	}{
		{"Empty message", common.Message{}},
		{"Empty value", common.Message{MsgType: common.MsgTGet, Ok: true, Value: []byte{}}},
		{"Nil value", common.Message{MsgType: common.MsgTGet, Ok: false}},
		{"Empty meta", common.Message{MsgType: common.MsgTInfo, Meta: []byte{}}},
		{"Negative timeout", common.Message{MsgType: common.MsgTPut, Key: "k", TimeoutMs: -5}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := serializer.Serialize(tc.msg)
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}

			var result common.Message
			if err := serializer.Deserialize(data, &result); err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}

			if !reflect.DeepEqual(tc.msg, result) {
				t.Errorf("round trip mismatch:\nOriginal: %#v\nResult:   %#v", tc.msg, result)
			}
		})
	}
}

// TestBinaryDeserializeResetsFields checks that a reused message does not keep stale fields
func TestBinaryDeserializeResetsFields(t *testing.T) {
	serializer := NewBinarySerializer()

	data, err := serializer.Serialize(*common.NewRemoveRequest("k"))
	if err != nil {
		t.Fatal(err)
	}

	msg := common.Message{Value: []byte("stale"), Ok: true, Size: 3, Err: "stale"}
	if err := serializer.Deserialize(data, &msg); err != nil {
		t.Fatal(err)
	}

	if msg.Value != nil || msg.Ok || msg.Size != 0 || msg.Err != "" {
		t.Errorf("stale fields survived deserialization: %s", &msg)
	}
}

// TestBinaryDoesNotAlias checks that deserialized byte slices do not point into the input buffer
func TestBinaryDoesNotAlias(t *testing.T) {
	serializer := NewBinarySerializer()

	data, _ := serializer.Serialize(*common.NewPutRequest("k", []byte("value"), 10))

	var msg common.Message
	if err := serializer.Deserialize(data, &msg); err != nil {
		t.Fatal(err)
	}

	for i := range data {
		data[i] = 0
	}
	if !bytes.Equal(msg.Value, []byte("value")) {
		t.Errorf("value changed together with the input buffer: %q", msg.Value)
	}
}

// TestInvalidBinaryData tests how the binary serializer handles corrupt or invalid data
func TestInvalidBinaryData(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name        string
		data        []byte
		expectError bool
	}{
		{
			name:        "Empty data",
			data:        []byte{},
			expectError: true,
		},
		{
			name:        "Too short header",
			data:        []byte{1}, // Only message type, no flags
			expectError: true,
		},
		{
			name:        "Valid header only",
			data:        []byte{1, 0}, // Message type 1, no flags
			expectError: false,
		},
		{
			name:        "Invalid length for key",
			data:        []byte{1, hasKey, 0, 0, 0, 5, 'a', 'b', 'c'}, // Claims key length 5 but only 3 bytes provided
			expectError: true,
		},
		{
			name:        "Truncated timeout",
			data:        []byte{1, hasTimeout, 0, 0, 0, 1}, // 8 bytes expected
			expectError: true,
		},
		{
			name:        "Invalid length for value",
			data:        []byte{1, hasValue, 0, 0, 0, 10}, // Claims value length 10 but no bytes provided
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var msg common.Message
			err := serializer.Deserialize(tc.data, &msg)

			if tc.expectError && err == nil {
				t.Errorf("Expected error but got none")
			} else if !tc.expectError && err != nil {
				t.Errorf("Did not expect error but got: %v", err)
			}
		})
	}
}
