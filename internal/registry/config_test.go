package registry

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalpermission "github.com/rmacdonaldsmith/phonestate-go/internal/permission"
	"github.com/rmacdonaldsmith/phonestate-go/pkg/permission"
	"github.com/rmacdonaldsmith/phonestate-go/pkg/registry"
	"github.com/rmacdonaldsmith/phonestate-go/pkg/telephony"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr error
	}{
		{name: "defaults", config: NewConfig(1)},
		{name: "no slots", config: NewConfig(0)},
		{name: "negative slots", config: NewConfig(-1), wantErr: ErrNegativeActiveSlots},
		{name: "debug level", config: NewConfig(2).WithLogLevel("debug")},
		{name: "upper case level", config: NewConfig(2).WithLogLevel("WARN")},
		{name: "bad level", config: NewConfig(2).WithLogLevel("verbose"), wantErr: ErrInvalidLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConfig_SetDefaults(t *testing.T) {
	config := &Config{}
	config.SetDefaults()

	assert.Equal(t, DefaultLogLevel, config.LogLevel)
	require.NotNil(t, config.Logger)
	assert.False(t, config.Logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestConfig_SetDefaultsLoggerFollowsLevel(t *testing.T) {
	config := NewConfig(1).WithLogLevel("debug")
	config.SetDefaults()

	require.NotNil(t, config.Logger)
	assert.True(t, config.Logger.Enabled(context.Background(), slog.LevelDebug))

	b, err := NewBroker(NewConfig(1).WithLogLevel("error"))
	require.NoError(t, err)
	assert.False(t, b.logger.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, b.logger.Enabled(context.Background(), slog.LevelError))
}

func TestConfig_NewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConfig(1).WithLogLevel("warn").NewLogger(&buf)

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	level, err := NewConfig(1).WithLogLevel("debug").Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PHONESTATE_ACTIVE_SLOTS", "3")
	t.Setenv("PHONESTATE_LOG_LEVEL", "debug")
	t.Setenv("PHONESTATE_GRANT_SECRET", "s3cret")

	config, err := LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 3, config.ActiveSlots)
	assert.Equal(t, "debug", config.LogLevel)
	assert.Equal(t, "s3cret", config.GrantSecret)
}

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"PHONESTATE_ACTIVE_SLOTS", "PHONESTATE_LOG_LEVEL", "PHONESTATE_GRANT_SECRET"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	config, err := LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultActiveSlots, config.ActiveSlots)
	assert.Equal(t, DefaultLogLevel, config.LogLevel)
	assert.Empty(t, config.GrantSecret)
}

func TestLoadConfigFromEnv_Invalid(t *testing.T) {
	t.Setenv("PHONESTATE_ACTIVE_SLOTS", "two")
	_, err := LoadConfigFromEnv()
	assert.Error(t, err)

	t.Setenv("PHONESTATE_ACTIVE_SLOTS", "-2")
	_, err = LoadConfigFromEnv()
	assert.ErrorIs(t, err, ErrNegativeActiveSlots)
}

func TestBroker_GrantSecretEnablesJWTGrants(t *testing.T) {
	const secret = "registry-test-secret"

	b, err := NewBroker(NewConfig(1).WithGrantSecret(secret).WithLogger(quietLogger()))
	require.NoError(t, err)
	defer b.Close()

	issuer, err := internalpermission.NewJWTAuthority(secret)
	require.NoError(t, err)
	token, _, err := issuer.IssueGrant(testCaller.Package, []permission.Tier{permission.TierPrivilegedPhoneState}, 0)
	require.NoError(t, err)

	events := telephony.NewEventSet(telephony.EventRadioPowerStateChanged)
	cb := registry.NewCallback().OnRadioPowerStateChanged(func(telephony.RadioPowerState) {})

	err = b.Listen(context.Background(), subA, testCaller, cb, events, false)
	assert.ErrorIs(t, err, registry.ErrPermissionDenied, "no credential presented")

	withGrant := testCaller
	withGrant.Credential = token
	assert.NoError(t, b.Listen(context.Background(), subA, withGrant, cb, events, false))

	precise := telephony.NewEventSet(telephony.EventPreciseCallStateChanged)
	err = b.Listen(context.Background(), subA, withGrant, cb, precise, false)
	assert.ErrorIs(t, err, registry.ErrPermissionDenied, "tier not in the grant")
}
