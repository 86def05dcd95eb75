package ygggo_mysqlx

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/testcontainers/testcontainers-go/wait"
)

// EnvDockerTests opts in to tests that start a MySQL container.
const EnvDockerTests = "YGGGO_MYSQLX_DOCKER"

// DockerTestHelper runs a MySQL container and a DB connected to it.
type DockerTestHelper struct {
	container testcontainers.Container
	db        *DB
	config    Config
}

// DockerTestConfig holds configuration for Docker test containers
type DockerTestConfig struct {
	MySQLVersion string
	Database     string
	Username     string
	Password     string
	RootPassword string
	StartTimeout time.Duration
}

func DefaultDockerTestConfig() DockerTestConfig {
	return DockerTestConfig{
		MySQLVersion: "8.0",
		Database:     "testdb",
		Username:     "testuser",
		Password:     "testpass",
		RootPassword: "rootpass",
		StartTimeout: 60 * time.Second,
	}
}

// requireDocker skips t unless container tests were requested.
func requireDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Docker test in short mode")
	}
	if ok, _ := strconv.ParseBool(os.Getenv(EnvDockerTests)); !ok {
		t.Skipf("set %s=1 to run MySQL container tests", EnvDockerTests)
	}
}

// NewDockerTestHelper starts a container and opens a DB on it with cfg's
// non-connection settings.
func NewDockerTestHelper(ctx context.Context, dc DockerTestConfig, cfg Config) (*DockerTestHelper, error) {
	container, err := mysql.Run(ctx,
		"mysql:"+dc.MySQLVersion,
		mysql.WithDatabase(dc.Database),
		mysql.WithUsername(dc.Username),
		mysql.WithPassword(dc.Password),
		testcontainers.WithEnv(map[string]string{
			"MYSQL_ROOT_PASSWORD": dc.RootPassword,
		}),
		testcontainers.WithWaitStrategy(
			wait.ForLog("port: 3306  MySQL Community Server").
				WithOccurrence(1).
				WithStartupTimeout(dc.StartTimeout),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start MySQL container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "3306")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	cfg.Host = host
	cfg.Port = port.Int()
	cfg.Username = dc.Username
	cfg.Password = dc.Password
	cfg.Database = dc.Database
	cfg.Params = map[string]string{"parseTime": "true"}

	db, err := Open(ctx, cfg)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &DockerTestHelper{container: container, db: db, config: cfg}, nil
}

func (h *DockerTestHelper) DB() *DB { return h.db }
func (h *DockerTestHelper) Config() Config { return h.config }

// Close closes the DB and terminates the container.
func (h *DockerTestHelper) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if h.db != nil {
		_ = h.db.Close()
	}
	if h.container != nil {
		return h.container.Terminate(ctx)
	}
	return nil
}
