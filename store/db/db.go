package db

import (
	"github.com/pkg/errors"

	"github.com/peakform/coach/internal/profile"
	"github.com/peakform/coach/store"
	"github.com/peakform/coach/store/db/postgres"
	"github.com/peakform/coach/store/db/sqlite"
)

// NewDBDriver creates a new db driver based on profile.
func NewDBDriver(p *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch p.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(p)
	case "postgres":
		driver, err = postgres.NewDB(p)
	default:
		return nil, errors.New("unknown db driver: only 'postgres' and 'sqlite' are supported")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
