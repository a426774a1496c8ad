package cmd

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"property-portal/internal/config"
	"property-portal/internal/repository"
	"property-portal/internal/store"
)

// stores is the set of storage backends selected by configuration.
type stores struct {
	Listings store.ListingStore
	Floors   store.FloorStore
	Users    store.UserStore
	Agencies store.AgencyStore

	db *sqlx.DB
}

func openStores(ctx context.Context, c *config.Config) (*stores, error) {
	if c.Store == config.StoreMemory {
		mem := repository.NewMemory()
		return &stores{
			Listings: mem.Listings,
			Floors:   mem.Listings,
			Users:    mem.Users,
			Agencies: mem.Agencies,
		}, nil
	}
	db, err := openDB(ctx, c)
	if err != nil {
		return nil, err
	}
	return &stores{
		Listings: repository.NewListingRepository(db),
		Floors:   repository.NewFloorRepository(db),
		Users:    repository.NewUserRepository(db),
		Agencies: repository.NewAgencyRepository(db),
		db:       db,
	}, nil
}

func openDB(ctx context.Context, c *config.Config) (*sqlx.DB, error) {
	if c.Store != config.StorePostgres {
		return nil, fmt.Errorf("store %q has no database", c.Store)
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	return db, nil
}

func (s *stores) ping(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.PingContext(ctx)
}

func (s *stores) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
