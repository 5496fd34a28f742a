package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"hashkey.local/internal/hashid"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ADDR", "IDLE_TIMEOUT", "SHUTDOWN_TIMEOUT", "READ_HEADER_TIMEOUT", "READ_TIMEOUT", "WRITE_TIMEOUT",
		"REDIS_ENABLED", "DB_DSN", "PUBLIC_BASE_URL",
		"HASHIDS_CONFIG", "HASHIDS_DEFAULT", "HASHIDS_SALT", "HASHIDS_ALPHABET", "HASHIDS_LENGTH", "HASHIDS_DRIVER",
		"JWT_SECRET", "JWT_ISSUER", "JWT_TTL", "RATELIMIT_ENABLED",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_UsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, 60*time.Second, cfg.IdleTimeout)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 5*time.Second, cfg.ReadHeaderTimeout)
	assert.True(t, cfg.RedisEnabled)

	assert.Equal(t, hashid.DefaultConnection, cfg.Hashids.Default)
	assert.Equal(t, hashid.CodecConfig{MinLength: 6}, cfg.Hashids.Connections[hashid.DefaultConnection])

	assert.Empty(t, cfg.JWTSecret)
	assert.Equal(t, "hashkey-api", cfg.JWTIssuer)
	assert.Equal(t, 12*time.Hour, cfg.JWTTTL)
	assert.True(t, cfg.RateLimitEnabled)
}

func TestLoad_ReadsEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADDR", ":18080")
	t.Setenv("IDLE_TIMEOUT", "2m")
	t.Setenv("WRITE_TIMEOUT", "6s")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("PUBLIC_BASE_URL", "https://s.example.com/")
	t.Setenv("HASHIDS_SALT", "pepper")
	t.Setenv("HASHIDS_LENGTH", "10")
	t.Setenv("HASHIDS_DRIVER", "SQIDS")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":18080", cfg.Addr)
	assert.Equal(t, 2*time.Minute, cfg.IdleTimeout)
	assert.Equal(t, 6*time.Second, cfg.WriteTimeout)
	assert.False(t, cfg.RedisEnabled)
	assert.Equal(t, "https://s.example.com", cfg.PublicBaseURL)
	assert.Equal(t,
		hashid.CodecConfig{Salt: "pepper", MinLength: 10, Driver: hashid.DriverSqids},
		cfg.Hashids.Connections[hashid.DefaultConnection],
	)
}

func TestLoad_HashidsFileWithEnvOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "hashids.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
default: primary
connections:
  primary:
    salt: file-salt
    length: 4
  user:
    salt: user-salt
    length: 8
    driver: sqids
`), 0o600))
	t.Setenv("HASHIDS_CONFIG", path)
	t.Setenv("HASHIDS_LENGTH", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, path, cfg.HashidsFile)
	assert.Equal(t, "primary", cfg.Hashids.Default)
	assert.Equal(t, hashid.CodecConfig{Salt: "file-salt", MinLength: 5}, cfg.Hashids.Connections["primary"])
	assert.Equal(t, hashid.CodecConfig{Salt: "user-salt", MinLength: 8, Driver: "sqids"}, cfg.Hashids.Connections["user"])

	r, err := hashid.NewResolver(cfg.Hashids)
	require.NoError(t, err)
	assert.Equal(t, "useruser-salt", r.Resolve("user").Salt)
	assert.Equal(t, "shortlinkfile-salt", r.Resolve("shortlink").Salt)
}

func TestLoad_HashidsFileErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("HASHIDS_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("connections: [1, 2"), 0o600))
	t.Setenv("HASHIDS_CONFIG", bad)
	_, err = Load()
	require.ErrorContains(t, err, "parse hashids config")
}

func TestLoad_UnknownDefaultIsCaughtByResolver(t *testing.T) {
	clearEnv(t)
	t.Setenv("HASHIDS_DEFAULT", "nope")

	cfg, err := Load()
	require.NoError(t, err)

	_, err = hashid.NewResolver(cfg.Hashids)
	require.ErrorIs(t, err, hashid.ErrMissingDefault)
}

func TestLoad_ReadsAuthEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_ISSUER", "issuer-x")
	t.Setenv("JWT_TTL", "30m")
	t.Setenv("RATELIMIT_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, "issuer-x", cfg.JWTIssuer)
	assert.Equal(t, 30*time.Minute, cfg.JWTTTL)
	assert.False(t, cfg.RateLimitEnabled)
}

func warnings(t *testing.T, cfg Config) []map[string]any {
	t.Helper()
	var buf bytes.Buffer
	cfg.LogWarnings(slog.New(slog.NewJSONHandler(&buf, nil)))

	var out []map[string]any
	dec := json.NewDecoder(&buf)
	for dec.More() {
		var m map[string]any
		require.NoError(t, dec.Decode(&m))
		out = append(out, m)
	}
	return out
}

func TestLogWarnings_EmptySalt(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	cfg.JWTSecret = "s3cret"

	logs := warnings(t, cfg)
	require.Len(t, logs, 1)
	assert.Equal(t, "WARN", logs[0]["level"])
	assert.Contains(t, logs[0]["msg"], "HASHIDS_SALT")
	assert.Equal(t, []any{hashid.DefaultConnection}, logs[0]["connections"])

	t.Setenv("HASHIDS_SALT", "pepper")
	cfg, err = Load()
	require.NoError(t, err)
	cfg.JWTSecret = "s3cret"
	assert.Empty(t, warnings(t, cfg))
}

func TestLogWarnings_MissingSecretAndRedis(t *testing.T) {
	clearEnv(t)
	t.Setenv("HASHIDS_SALT", "pepper")
	t.Setenv("REDIS_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)

	logs := warnings(t, cfg)
	require.Len(t, logs, 2)
	assert.Contains(t, logs[0]["msg"], "JWT_SECRET")
	assert.Contains(t, logs[1]["msg"], "rate limiting")
}
