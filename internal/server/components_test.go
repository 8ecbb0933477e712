package server

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/recipehub/recipehub/internal/logging"
	"github.com/recipehub/recipehub/internal/server/config"
	"github.com/recipehub/recipehub/internal/server/health"
	"github.com/recipehub/recipehub/internal/server/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.UploadDir = t.TempDir()
	return cfg
}

func withMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	orig := openDB
	openDB = func(context.Context, string) (*sql.DB, error) { return db, nil }
	t.Cleanup(func() { openDB = orig })
	return mock
}

func TestBuild_InMemorySessions(t *testing.T) {
	mock := withMockDB(t)
	cfg := testConfig(t)

	c, err := Build(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)

	_, ok := c.Sessions.(*sessions.MemoryStore)
	assert.True(t, ok)
	assert.Equal(t, cfg.UploadDir, c.UploadDir())
	assert.Equal(t, []string{"database", "redis"}, c.Health.Names())

	mock.ExpectPing()
	rep := c.Health.Check(context.Background())
	assert.Equal(t, health.StatusOK, rep.Status)

	mock.ExpectClose()
	require.NoError(t, c.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuild_RedisSessions(t *testing.T) {
	withMockDB(t)
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.RedisURL = "redis://" + mr.Addr()

	c, err := Build(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.Sessions.(*sessions.RedisStore)
	assert.True(t, ok)

	require.NoError(t, c.Sessions.Ping(context.Background()))
}

func TestBuild_RedisFailureClosesDB(t *testing.T) {
	mock := withMockDB(t)
	cfg := testConfig(t)
	cfg.RedisURL = "redis://x"

	orig := openRedis
	openRedis = func(context.Context, string) (sessions.Store, func() error, error) {
		return nil, nil, errors.New("dial tcp: refused")
	}
	t.Cleanup(func() { openRedis = orig })

	mock.ExpectClose()
	_, err := Build(context.Background(), cfg, logging.Discard())

	assert.ErrorContains(t, err, "redis init error")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuild_DBFailure(t *testing.T) {
	orig := openDB
	openDB = func(context.Context, string) (*sql.DB, error) { return nil, errors.New("refused") }
	t.Cleanup(func() { openDB = orig })

	_, err := Build(context.Background(), testConfig(t), logging.Discard())
	assert.ErrorContains(t, err, "db init error")
}

func TestBuild_UnknownStorage(t *testing.T) {
	mock := withMockDB(t)
	cfg := testConfig(t)
	cfg.StorageType = "ftp"

	mock.ExpectClose()
	_, err := Build(context.Background(), cfg, logging.Discard())

	assert.ErrorContains(t, err, "storage init error")
	require.NoError(t, mock.ExpectationsWereMet())
}
