package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/collabdoor/collabdoor-api/internal/database"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// dataTables lists every application table, children first.
var dataTables = []string{
	"feed_post_organizations",
	"feed_comments",
	"feed_likes",
	"feed_posts",
	"pending_reviews",
	"reviews",
	"notifications",
	"project_phase_seeds",
	"project_phases",
	"project_applications",
	"projects",
	"organization_join_requests",
	"organization_members",
	"organizations",
	"refresh_tokens",
	"users",
}

type TestDB struct {
	DB        *database.DB
	Container testcontainers.Container
}

var (
	shared    *TestDB
	sharedErr error
	startOnce sync.Once
)

func startPostgres(ctx context.Context) (*TestDB, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "collabdoor",
				"POSTGRES_PASSWORD": "collabdoor",
				"POSTGRES_DB":       "collabdoor_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("container port: %w", err)
	}

	dsn := fmt.Sprintf("postgres://collabdoor:collabdoor@%s:%s/collabdoor_test?sslmode=disable", host, port.Port())
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	db := &database.DB{Pool: pool}
	if err := db.Migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &TestDB{DB: db, Container: container}, nil
}

// SetupTestDB returns the package's migrated postgres, starting the container
// on first use. Each call empties every table so tests start from a clean
// schema; tests sharing the container must not run in parallel.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	startOnce.Do(func() {
		shared, sharedErr = startPostgres(context.Background())
	})
	if sharedErr != nil {
		t.Fatalf("test database unavailable: %v", sharedErr)
	}
	shared.CleanTables(t)
	return shared
}

// StopTestDB tears down the shared container. Call it from TestMain after m.Run.
func StopTestDB() {
	if shared == nil {
		return
	}
	shared.DB.Pool.Close()
	_ = shared.Container.Terminate(context.Background())
	shared = nil
}

func (tdb *TestDB) CleanTables(t *testing.T) {
	t.Helper()
	stmt := "TRUNCATE TABLE " + strings.Join(dataTables, ", ") + " RESTART IDENTITY CASCADE"
	if _, err := tdb.DB.Pool.Exec(context.Background(), stmt); err != nil {
		t.Fatalf("failed to reset tables: %v", err)
	}
}
