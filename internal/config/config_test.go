package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10, cfg.TxTimeoutSeconds)
	assert.NotEmpty(t, cfg.DBConn)
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TX_TIMEOUT_SECONDS", "30")
	t.Setenv("MNO_GATEWAY_URL", "https://gw.test/soap")

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 30, cfg.TxTimeoutSeconds)
	assert.Equal(t, "https://gw.test/soap", cfg.MNOGatewayURL)
}

func TestNewConfig_BadTimeoutRejected(t *testing.T) {
	t.Setenv("TX_TIMEOUT_SECONDS", "-1")

	_, err := NewConfig()
	assert.Error(t, err)
}
