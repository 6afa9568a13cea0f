package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 128, cfg.MailboxSize)
	assert.NotNil(t, cfg.Clock)
	assert.NotNil(t, cfg.Logger)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Workers = -3
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.MailboxSize = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.StopTimeout = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.StopTimeout = time.Second
	assert.NoError(t, cfg.Validate())
}
