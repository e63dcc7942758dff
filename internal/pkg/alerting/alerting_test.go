package alerting

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewWithoutTokenLogsOnly(t *testing.T) {
	var buf bytes.Buffer
	a := New(Config{}, zerolog.New(&buf))

	_, ok := a.(*NopAlerter)
	assert.True(t, ok)

	a.Critical(errors.New("ledger drift"), map[string]interface{}{"courseId": 3})
	a.Close()

	out := buf.String()
	assert.Contains(t, out, `"alert":true`)
	assert.Contains(t, out, `"courseId":3`)
	assert.Contains(t, out, "ledger drift")
}

func TestNewWithTokenUsesRollbar(t *testing.T) {
	a := New(Config{Token: "test-token", Environment: "test"}, zerolog.Nop())
	_, ok := a.(*RollbarAlerter)
	assert.True(t, ok)
}
