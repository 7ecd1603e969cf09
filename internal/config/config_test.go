package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	v.Set("JWT_SECRET", "s3cret")

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, DriverMemory, cfg.DBDriver)
	assert.Equal(t, "token", cfg.SessionCookie)
	assert.Equal(t, time.Hour, cfg.RoomTokenTTL)
	assert.Equal(t, 10*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, 40, cfg.WSEventBurst)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "  ")
	_, err := LoadFrom(viper.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DB_URL", "postgres://u:p@localhost:5432/db")
	t.Setenv("ROOM_TOKEN_TTL", "30m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, "postgres://u:p@localhost:5432/db", cfg.DBURL)
	assert.Equal(t, 30*time.Minute, cfg.RoomTokenTTL)
}

func TestValidateDriverRequirements(t *testing.T) {
	v := viper.New()
	v.Set("JWT_SECRET", "x")
	v.Set("DB_DRIVER", "mongo")
	_, err := LoadFrom(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONGO_URL")

	v = viper.New()
	v.Set("JWT_SECRET", "x")
	v.Set("DB_DRIVER", "sqlite")
	_, err = LoadFrom(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite")
}
