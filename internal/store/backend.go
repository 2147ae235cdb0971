package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"campusd/internal/attendance"
	"campusd/internal/booking"
	"campusd/internal/config"
	"campusd/internal/store/memory"
)

// Backend is the backing store selected by STORE_BACKEND.
type Backend struct {
	Attendance attendance.Repository
	Booking    booking.Repository
	db         *DB
}

// Open connects the configured backend. The postgres backend migrates the
// schema first when MIGRATE_ON_START is set.
func Open(ctx context.Context, cfg config.App, log *zap.Logger) (*Backend, error) {
	if cfg.StoreBackend == "memory" {
		log.Info("using in-memory store with demo data")
		mem := memory.Seeded()
		return &Backend{Attendance: mem, Booking: mem}, nil
	}

	db, err := NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if cfg.MigrateOnStart {
		version, err := Migrate(db.Client)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info("schema migrated", zap.Uint("version", version))
	}
	return &Backend{
		Attendance: NewAttendanceRepo(db.Client),
		Booking:    NewBookingRepo(db.Client),
		db:         db,
	}, nil
}

// Healthy reports whether the database answers. The memory backend is always healthy.
func (b *Backend) Healthy(ctx context.Context) bool {
	if b.db == nil {
		return true
	}
	return b.db.Healthy(ctx)
}

func (b *Backend) Close() error {
	return b.db.Close()
}
