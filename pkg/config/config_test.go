package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsAndEnvOverrides(t *testing.T) {
	t.Setenv("APP_CONFIG_NAME", "does-not-exist")
	t.Setenv("APP_SERVER_PORT", "9999")
	t.Setenv("APP_AUTH_ADMIN_ROLE_ID", "3")
	t.Setenv("APP_TIMEZONE", "Europe/Paris")

	c, err := New()
	require.NoError(t, err)
	require.Equal(t, EnvDev, c.Env)
	require.Equal(t, 9999, c.Server.Port)
	require.Equal(t, int64(3), c.Auth.AdminRoleID)
	require.Equal(t, PasswordSchemeBcrypt, c.Auth.PasswordScheme)
	require.Equal(t, 12*time.Hour, c.Auth.TokenTTL)
	require.Equal(t, 10*time.Minute, c.Redis.PricingTTL)
	require.Empty(t, c.Redis.Addr)

	loc, err := c.Location()
	require.NoError(t, err)
	require.Equal(t, "Europe/Paris", loc.String())
}

func TestNew_RejectsUnknownTimezone(t *testing.T) {
	t.Setenv("APP_CONFIG_NAME", "does-not-exist")
	t.Setenv("APP_TIMEZONE", "Mars/Olympus_Mons")

	_, err := New()
	require.Error(t, err)
}

func TestLocation_EmptyIsUTC(t *testing.T) {
	loc, err := (&Config{}).Location()
	require.NoError(t, err)
	require.Equal(t, time.UTC, loc)
}
