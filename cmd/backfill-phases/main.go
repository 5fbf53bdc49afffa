package main

import (
	"context"
	"fmt"
	"os"

	"github.com/collabdoor/collabdoor-api/internal/cache"
	"github.com/collabdoor/collabdoor-api/internal/config"
	"github.com/collabdoor/collabdoor-api/internal/database"
	"github.com/collabdoor/collabdoor-api/internal/logger"
	"github.com/collabdoor/collabdoor-api/internal/models"
	"github.com/collabdoor/collabdoor-api/internal/services"
	"github.com/google/uuid"
)

type seed struct {
	projectID uuid.UUID
	pt        models.PartnershipType
}

// backfill-phases seeds template phases for every approved application whose
// project never received them. Each pair is seeded in its own transaction and
// already seeded pairs are skipped, so a failed run can simply be repeated.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	seeds, err := approvedPairs(ctx, db)
	if err != nil {
		logger.Error("failed to list approved applications", "error", err)
		os.Exit(1)
	}

	var queryCache cache.QueryCache = cache.Noop{}
	if cfg.Redis.Addr != "" {
		redisCache, client, err := cache.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer func() { _ = client.Close() }()
		queryCache = redisCache
	}

	phaseService := services.NewPhaseService(db, queryCache, nil)

	total := 0
	for _, s := range seeds {
		n, err := phaseService.Backfill(ctx, s.projectID, s.pt)
		if err != nil {
			logger.Error("failed to generate phases", "project_id", s.projectID, "partnership_type", s.pt, "error", err)
			continue
		}
		if n > 0 {
			logger.Info("phases generated", "project_id", s.projectID, "partnership_type", s.pt, "count", n)
			total += n
		}
	}

	fmt.Printf("Checked %d approved partnerships, inserted %d phases\n", len(seeds), total)
}

func approvedPairs(ctx context.Context, db *database.DB) ([]seed, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT DISTINCT project_id, partnership_type
		FROM project_applications
		WHERE status = $1
		ORDER BY project_id
	`, models.ApplicationStatusApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seeds []seed
	for rows.Next() {
		var s seed
		if err := rows.Scan(&s.projectID, &s.pt); err != nil {
			return nil, err
		}
		seeds = append(seeds, s)
	}
	return seeds, rows.Err()
}
