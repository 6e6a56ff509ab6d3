package redis

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen11/commitquest/ui-service/internal/models"
)

func TestMaskToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{name: "long_token", token: "abc123xyz789", want: "abc1***z789"},
		{name: "short_token", token: "short", want: "***"},
		{name: "boundary_length", token: "12345678", want: "***"},
		{name: "empty", token: "", want: "***"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskToken(tt.token))
		})
	}
}

func TestParseMemoryUsage(t *testing.T) {
	info := "# Memory\r\nused_memory:1048576\r\nused_memory_human:1.00M\r\nused_memory_rss:2097152\r\n"
	assert.Equal(t, "1.00M", parseMemoryUsage(info))
	assert.Equal(t, "unavailable", parseMemoryUsage("# Memory\r\n"))
}

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "ui:session:abc", sessionKey("abc"))
}

func TestCountTriggered(t *testing.T) {
	marshal := func(trigger models.TriggerState) string {
		s := models.NewSessionState()
		s.Trigger = trigger
		data, err := json.Marshal(s)
		require.NoError(t, err)
		return string(data)
	}

	values := []any{
		marshal(models.TriggerTriggered),
		marshal(models.TriggerIdle),
		marshal(models.TriggerTriggered),
		nil,
		"not-json",
	}

	assert.Equal(t, 2, countTriggered(values))
}
