package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"agroproposals/internal/db"
	"agroproposals/internal/pdf"
	"agroproposals/internal/proposal"
	"agroproposals/internal/seed"
	"agroproposals/internal/storage"
	"agroproposals/internal/store"
	"agroproposals/pkg/types"

	"github.com/k0kubun/pp/v3"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Create demo proposals, with their PDFs, for one owner",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "owner",
			Usage:    "Identity (cognito sub) that will own the demo proposals",
			Required: true,
		},
		&cli.IntFlag{
			Name:  "count",
			Usage: "Number of proposals to create",
			Value: 5,
		},
	},
	Action: func(cCtx *cli.Context) error {
		cfg, err := loadConfig(cCtx.String("env-prefix"))
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if cfg.StorageBackend == types.StorageBackendMemory {
			return fmt.Errorf("seeding needs a persistent storage backend, STORAGE_BACKEND=memory would lose the PDFs")
		}

		ctx := context.Background()
		logger := newLogger()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		logger.Info("Connected to database")

		backend, _, err := buildStorage(ctx, cfg)
		if err != nil {
			return err
		}

		service := proposal.NewService(
			pdf.NewRenderer(),
			storage.NewGateway(backend, cfg.StorageBucket, logger),
			store.NewProposalRepository(pool),
			logger,
			nil,
		)

		owner := &types.Identity{ID: cCtx.String("owner")}
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))

		logger.WithField("user_id", owner.ID).Info("Seeding proposals...")
		results, err := seed.SeedProposals(ctx, service, owner, cCtx.Int("count"), rng)
		for _, res := range results {
			pp.Println(res.Proposal)
		}
		if err != nil {
			return fmt.Errorf("failed to seed proposals: %w", err)
		}

		logger.WithField("count", len(results)).Info("Proposals seeded successfully")

		return nil
	},
}
