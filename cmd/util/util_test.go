package util

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestWrapString(t *testing.T) {
	text := "The address of the expmap server. Multiple endpoints can be specified as a comma-separated list"
	wrapped := WrapString(text)

	for _, line := range strings.Split(wrapped, "\n") {
		if len(line) > Wrap {
			t.Errorf("line longer than %d characters: %q", Wrap, line)
		}
	}
	if strings.Join(strings.Fields(wrapped), " ") != text {
		t.Errorf("wrapping changed the words: %q", wrapped)
	}
}

func TestGetClientConfig(t *testing.T) {
	viper.Set("transport-endpoints", "http://a:8080, b:8080,,")
	viper.Set("timeout", 3)
	viper.Set("transport-retries", 2)
	t.Cleanup(viper.Reset)

	config := GetClientConfig()
	if len(config.Endpoints) != 2 || config.Endpoints[0] != "http://a:8080" || config.Endpoints[1] != "b:8080" {
		t.Errorf("unexpected endpoints: %v", config.Endpoints)
	}
	if config.TimeoutSecond != 3 || config.RetryCount != 2 {
		t.Errorf("unexpected config: %s", config.String())
	}
}

func TestGetSerializer(t *testing.T) {
	t.Cleanup(viper.Reset)

	for _, name := range []string{"json", "gob", "binary"} {
		viper.Set("serializer", name)
		if _, err := GetSerializer(); err != nil {
			t.Errorf("serializer %s: %v", name, err)
		}
	}

	viper.Set("serializer", "xml")
	if _, err := GetSerializer(); err == nil {
		t.Error("expected an error for an unknown serializer")
	}
}
