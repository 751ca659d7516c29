package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidator(t *testing.T) {
	v := NewValidator()

	t.Run("log level", func(t *testing.T) {
		for _, l := range []string{"debug", "info", "warn", "error"} {
			assert.NoError(t, v.ValidateLogLevel(l))
		}
		assert.Error(t, v.ValidateLogLevel("trace"))
	})

	t.Run("clock", func(t *testing.T) {
		assert.NoError(t, v.ValidateClock(""))
		assert.NoError(t, v.ValidateClock("realtime"))
		assert.NoError(t, v.ValidateClock("PSEUDO"))
		assert.Error(t, v.ValidateClock("atomic"))
	})

	t.Run("event types", func(t *testing.T) {
		assert.NoError(t, v.ValidateEventTypes(nil))
		assert.NoError(t, v.ValidateEventTypes([]string{"object_inserted", "after_process_completed"}))
		assert.Error(t, v.ValidateEventTypes([]string{"object_inserted", "OBJECT_INSERTED"}))
	})

	t.Run("addr", func(t *testing.T) {
		assert.NoError(t, v.ValidateAddr(":9464"))
		assert.NoError(t, v.ValidateAddr("127.0.0.1:9464"))
		assert.Error(t, v.ValidateAddr("localhost"))
	})

	t.Run("path", func(t *testing.T) {
		assert.NoError(t, v.ValidatePath("audit.path", "/tmp/audit.db"))
		assert.Error(t, v.ValidatePath("audit.path", ""))
		assert.Error(t, v.ValidatePath("audit.path", "."))
	})
}
