package repository

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"AlumniServer/config"
	"AlumniServer/model"
	"AlumniServer/pkg/async"
	"AlumniServer/pkg/database"
	"AlumniServer/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	repoTestOnce  sync.Once
	repoDBCounter atomic.Int64
)

func initRepoTest(t *testing.T) {
	t.Helper()
	repoTestOnce.Do(func() {
		logger.ReplaceGlobal(zap.NewNop())
	})
	require.NoError(t, async.Init(config.DefaultAsyncConfig()))
}

// newTestDB 每个用例一个独立的内存库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	initRepoTest(t)

	cfg := config.DefaultDatabaseConfig()
	cfg.Driver = config.DriverSQLite
	cfg.DSN = fmt.Sprintf("file:repo_test_%d?mode=memory&cache=shared", repoDBCounter.Add(1))
	cfg.SlowThreshold = 0

	db, err := database.Build(cfg)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.All()...))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func seedUsers(t *testing.T, db *gorm.DB, users ...model.UserInfo) {
	t.Helper()
	for i := range users {
		require.NoError(t, db.Create(&users[i]).Error)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 10*time.Millisecond)
}
