package health

import (
	"context"
	"database/sql"
	"time"
)

const pingTimeout = 2 * time.Second

// Service reports process liveness plus the state of attached dependencies.
type Service struct {
	db *sql.DB
}

// NewService constructs a health service. db may be nil when the process
// runs on in-memory repositories.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Status pings the dependencies and reports per-component state. The bool
// is false when any attached dependency is down.
func (s *Service) Status(ctx context.Context) (bool, map[string]string) {
	checks := map[string]string{}
	ok := true

	if s.db == nil {
		checks["database"] = "memory"
	} else {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := s.db.PingContext(pingCtx); err != nil {
			checks["database"] = "down"
			ok = false
		} else {
			checks["database"] = "ok"
		}
	}

	return ok, checks
}
