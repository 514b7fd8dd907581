package common

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageTypeNames(t *testing.T) {
	for msgType := MsgTSuccess; msgType <= MsgTCustom; msgType++ {
		name := msgType.String()
		require.NotEqual(t, "unknown", name, "type %d has no name", msgType)

		parsed, err := ParseMessageType(name)
		require.NoError(t, err)
		assert.Equal(t, msgType, parsed)
	}

	assert.Equal(t, "unknown", MessageType(200).String())
	_, err := ParseMessageType("lock")
	assert.Error(t, err)
}

func TestMessageTypeJSON(t *testing.T) {
	data, err := json.Marshal(NewTTLRequest("k"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg_type":"ttl"`)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, MsgTTTL, msg.MsgType)
	assert.Equal(t, "k", msg.Key)

	assert.Error(t, json.Unmarshal([]byte(`{"msg_type":"nope"}`), &msg))
}

func TestResponseFactories(t *testing.T) {
	resp := NewPutResponse(errors.New("boom"))
	assert.Equal(t, MsgTPut, resp.MsgType)
	assert.Equal(t, "boom", resp.Err)

	resp = NewGetResponse([]byte("v"), true, nil)
	assert.Empty(t, resp.Err)
	assert.True(t, resp.Ok)
	assert.Equal(t, []byte("v"), resp.Value)

	resp = NewTTLResponse(1500, true, nil)
	assert.Equal(t, int64(1500), resp.TimeoutMs)

	resp = NewErrorResponse("bad")
	assert.Equal(t, MsgTError, resp.MsgType)
	assert.Equal(t, "bad", resp.Err)
}

func TestParseLogLevel(t *testing.T) {
	testCases := map[string]logger.LogLevel{
		"debug":   logger.DEBUG,
		"INFO":    logger.INFO,
		"warn":    logger.WARNING,
		"warning": logger.WARNING,
		"error":   logger.ERROR,
	}
	for input, want := range testCases {
		got, err := ParseLogLevel(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseLogLevel("verbose")
	assert.Error(t, err)
}

func TestLoggerLevelFilter(t *testing.T) {
	l := CreateLogger("test").(*expmapLogger)
	assert.Equal(t, logger.INFO, l.level)

	l.SetLevel(logger.ERROR)
	assert.Equal(t, logger.ERROR, l.level)

	// below the level nothing reaches zap, above it must not panic
	l.Debugf("hidden %d", 1)
	l.Errorf("shown %d", 2)

	assert.Panics(t, func() {
		l.SetLevel(logger.CRITICAL)
		l.Panicf("fatal %s", "error")
	})
}

func TestServerConfigString(t *testing.T) {
	config := ServerConfig{
		Shards:        []ServerShard{{ShardID: 200, Presize: 1024}, {ShardID: 100}},
		Endpoint:      "0.0.0.0:8080",
		TimeoutSecond: 5,
		LogLevel:      "info",
	}

	assert.Equal(t, []uint64{100, 200}, config.ShardIDs())

	s := config.String()
	assert.True(t, strings.Contains(s, "0.0.0.0:8080"))
	assert.Contains(t, s, "expiring map (presize: 1024)")
	assert.Contains(t, s, "expiring map (presize: default)")
}
