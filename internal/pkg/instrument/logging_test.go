package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogging(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	// Arrange
	var buf bytes.Buffer
	logger := SetupLogging(LogOptions{
		ServiceName: "levelup-test",
		Writer:      &buf,
		MaskFields:  []string{"token", " Password "},
	}, nil)
	ctx := SetCorrelationID(context.Background(), "cid-42")

	// Act
	logger.InfoContext(ctx, "hello",
		"token", "secret",
		"body", map[string]any{"password": "p", "name": "n"},
		"raw", `{"token":"x","ok":true}`,
	)

	// Assert
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "INFO", line["severity"])
	assert.Equal(t, "cid-42", line["_cID"])
	assert.Equal(t, "levelup-test", line["service"])
	assert.Equal(t, "***", line["token"])
	assert.Equal(t, map[string]any{"password": "***", "name": "n"}, line["body"])
	assert.JSONEq(t, `{"token":"***","ok":true}`, line["raw"].(string))
	assert.Contains(t, line, "ts")
}

func TestMaskData(t *testing.T) {
	keys := MaskKeys([]string{"secret", ""})

	got := MaskData([]any{map[string]any{"Secret": 1, "keep": []any{map[string]any{"secret": 2}}}}, keys)

	assert.Equal(t, []any{map[string]any{"Secret": "***", "keep": []any{map[string]any{"secret": "***"}}}}, got)
	assert.Len(t, keys, 1)
}
