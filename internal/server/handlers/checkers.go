package handlers

import (
	"context"
	"errors"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// StoreChecker reports the quota store unhealthy when it cannot be reached.
type StoreChecker struct {
	DB Pinger
}

// CheckHealth implements HealthChecker.
func (c StoreChecker) CheckHealth(ctx context.Context) error {
	if c.DB == nil {
		return errors.New("store not configured")
	}
	return c.DB.PingContext(ctx)
}
