package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port    int      `env:"PORT" envDefault:"8090"`
	Driver  string   `env:"DRIVER" envDefault:"memory"`
	Brokers []string `env:"BROKERS" envDefault:"localhost:9092" envSeparator:","`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 8090, cfg.Port)
	assert.Equal(t, "memory", cfg.Driver)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
}

func TestLoadWithPrefix_ReadsPrefixedVars(t *testing.T) {
	t.Setenv("TESTSF_PORT", "9191")
	t.Setenv("TESTSF_DRIVER", "redis")
	t.Setenv("TESTSF_BROKERS", "a:9092,b:9092")
	t.Setenv("PORT", "1")

	var cfg testConfig
	require.NoError(t, LoadWithPrefix(&cfg, "TESTSF_"))

	assert.Equal(t, 9191, cfg.Port)
	assert.Equal(t, "redis", cfg.Driver)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Brokers)
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("PORT", "not-a-number")

	var cfg testConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad_NonPointer(t *testing.T) {
	err := Load(testConfig{})
	assert.Error(t, err)
}
