package testutils

import (
	"fmt"
	"os"
	"testing"
	"time"

	"calendar-relay-backend/internal/database/models"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// BaseTestSuite provides a real postgres instance for repository tests,
// started in a throwaway docker container.
type BaseTestSuite struct {
	DB       *gorm.DB
	pool     *dockertest.Pool
	resource *dockertest.Resource
	t        *testing.T
}

// SetupTestSuite starts a postgres container and opens a migrated gorm
// connection. Tests are skipped when docker is not available (CI without a
// docker socket, SKIP_DB_TESTS=1).
func SetupTestSuite(t *testing.T) *BaseTestSuite {
	t.Helper()

	if os.Getenv("SKIP_DB_TESTS") != "" {
		t.Skip("SKIP_DB_TESTS is set, skipping database-backed tests")
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("could not construct docker pool: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker is not available: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=relay_test",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Skipf("could not start postgres container: %v", err)
	}
	_ = resource.Expire(300)

	dsn := fmt.Sprintf("host=localhost port=%s user=test password=test dbname=relay_test sslmode=disable",
		resource.GetPort("5432/tcp"))

	var db *gorm.DB
	pool.MaxWait = 60 * time.Second
	if err := pool.Retry(func() error {
		var openErr error
		db, openErr = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if openErr != nil {
			return openErr
		}
		sqlDB, pingErr := db.DB()
		if pingErr != nil {
			return pingErr
		}
		return sqlDB.Ping()
	}); err != nil {
		_ = pool.Purge(resource)
		t.Fatalf("could not connect to postgres container: %v", err)
	}

	if err := db.AutoMigrate(&models.MicrosoftToken{}); err != nil {
		_ = pool.Purge(resource)
		t.Fatalf("could not migrate schema: %v", err)
	}

	return &BaseTestSuite{DB: db, pool: pool, resource: resource, t: t}
}

// TeardownTestSuite stops and removes the postgres container
func (s *BaseTestSuite) TeardownTestSuite() {
	if s.pool != nil && s.resource != nil {
		_ = s.pool.Purge(s.resource)
	}
}

// SetupTest runs before each test
func (s *BaseTestSuite) SetupTest() {}

// TearDownTest runs after each test
func (s *BaseTestSuite) TearDownTest() {}
