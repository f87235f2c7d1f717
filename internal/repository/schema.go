package repository

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS flights (
		id             TEXT PRIMARY KEY,
		airline        VARCHAR(100) NOT NULL,
		flight_number  VARCHAR(20)  NOT NULL,
		departure_time TIMESTAMPTZ  NOT NULL,
		arrival_time   TIMESTAMPTZ  NOT NULL,
		price          BIGINT       NOT NULL CHECK (price >= 0),
		source         VARCHAR(100) NOT NULL,
		destination    VARCHAR(100) NOT NULL,
		departure_date DATE         NOT NULL,
		arrival_date   DATE         NOT NULL,
		is_round_trip  BOOLEAN      NOT NULL DEFAULT FALSE,
		created_at     TIMESTAMPTZ  NOT NULL DEFAULT now(),
		updated_at     TIMESTAMPTZ  NOT NULL DEFAULT now(),
		deleted_at     TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS flights_search_idx ON flights (departure_date, price) WHERE deleted_at IS NULL AND is_round_trip = FALSE`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id          TEXT PRIMARY KEY,
		user_id     VARCHAR(100) NOT NULL,
		fullname    VARCHAR(200) NOT NULL,
		email       VARCHAR(255) NOT NULL,
		phone       VARCHAR(50),
		trip_type   VARCHAR(20)  NOT NULL,
		total_price BIGINT       NOT NULL,
		created_at  TIMESTAMPTZ  NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ  NOT NULL DEFAULT now(),
		deleted_at  TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS bookings_user_idx ON bookings (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS booking_trips (
		id                  TEXT PRIMARY KEY,
		user_id             VARCHAR(100) NOT NULL,
		booking_id          TEXT NOT NULL REFERENCES bookings (id),
		trip_order          INTEGER NOT NULL,
		source_airport      VARCHAR(100) NOT NULL,
		destination_airport VARCHAR(100) NOT NULL,
		departure_time      TIMESTAMPTZ NOT NULL,
		arrival_time        TIMESTAMPTZ NOT NULL,
		total_price         BIGINT NOT NULL,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		deleted_at          TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS booking_flights (
		id                  TEXT PRIMARY KEY,
		user_id             VARCHAR(100) NOT NULL,
		booking_id          TEXT NOT NULL REFERENCES bookings (id),
		booking_trip_id     TEXT NOT NULL REFERENCES booking_trips (id),
		flight_order        INTEGER NOT NULL,
		airline             VARCHAR(100) NOT NULL,
		flight_number       VARCHAR(20) NOT NULL,
		departure_time      TIMESTAMPTZ NOT NULL,
		arrival_time        TIMESTAMPTZ NOT NULL,
		source_airport      VARCHAR(100) NOT NULL,
		destination_airport VARCHAR(100) NOT NULL,
		departure_date      DATE NOT NULL,
		arrival_date        DATE NOT NULL,
		price               BIGINT NOT NULL,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		deleted_at          TIMESTAMPTZ
	)`,
}

var dropStatements = []string{
	`DROP TABLE IF EXISTS booking_flights CASCADE`,
	`DROP TABLE IF EXISTS booking_trips CASCADE`,
	`DROP TABLE IF EXISTS bookings CASCADE`,
	`DROP TABLE IF EXISTS flights CASCADE`,
}

// Migrate creates the schema. It is idempotent.
func Migrate(ctx context.Context, db DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Reset drops every table, dependents first.
func Reset(ctx context.Context, db DB) error {
	for _, stmt := range dropStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}
	return nil
}
