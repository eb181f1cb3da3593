package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/adanlessossi-kanli/tacho/module/core/domain"
	"github.com/adanlessossi-kanli/tacho/module/core/internal/repository/store"
)

var _ store.TripStore = (*TripStore)(nil)

type TripStore struct {
	db *sql.DB
}

func NewTripStore(db *sql.DB) *TripStore {
	return &TripStore{db: db}
}

func (s *TripStore) GetGeofencesForTrip(ctx context.Context, tripID string) ([]domain.GeofenceDefinition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, latitude, longitude, radius_km FROM trip_geofences WHERE trip_id = $1 ORDER BY id`,
		tripID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.GeofenceDefinition
	for rows.Next() {
		var g domain.GeofenceDefinition
		if err := rows.Scan(&g.ID, &g.Name, &g.Center.Lat, &g.Center.Lon, &g.RadiusKm); err != nil {
			return nil, err
		}
		results = append(results, g)
	}
	return results, rows.Err()
}

// IsTripEnded treats a trip the store has never heard of as not ended; the
// core may track trips before they reach the record store.
func (s *TripStore) IsTripEnded(ctx context.Context, tripID string) (bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT ended_at IS NOT NULL FROM trips WHERE trip_id = $1`,
		tripID,
	)

	var ended bool
	if err := row.Scan(&ended); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return ended, nil
}
