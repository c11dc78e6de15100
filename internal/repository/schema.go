package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	username      VARCHAR(150) NOT NULL,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT users_username_key UNIQUE (username)
);

CREATE TABLE IF NOT EXISTS flights (
	id          BIGSERIAL PRIMARY KEY,
	origin      VARCHAR(100) NOT NULL,
	destination VARCHAR(100) NOT NULL,
	date        DATE NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS flights_date_idx ON flights (date);

CREATE TABLE IF NOT EXISTS seat_inventory (
	flight_id  BIGINT NOT NULL REFERENCES flights (id) ON DELETE CASCADE,
	seat_label VARCHAR(10) NOT NULL,
	position   INT NOT NULL,
	status     VARCHAR(16) NOT NULL DEFAULT 'AVAILABLE' CHECK (status IN ('AVAILABLE', 'RESERVED')),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (flight_id, seat_label)
);

CREATE TABLE IF NOT EXISTS reservations (
	id         BIGSERIAL PRIMARY KEY,
	user_id    BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	flight_id  BIGINT NOT NULL REFERENCES flights (id),
	seat_label VARCHAR(10) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT reservations_flight_seat_key UNIQUE (flight_id, seat_label),
	CONSTRAINT reservations_user_flight_key UNIQUE (user_id, flight_id),
	CONSTRAINT reservations_seat_fkey FOREIGN KEY (flight_id, seat_label) REFERENCES seat_inventory (flight_id, seat_label)
);

CREATE INDEX IF NOT EXISTS reservations_user_idx ON reservations (user_id);
`

const dropSQL = `
DROP TABLE IF EXISTS reservations;
DROP TABLE IF EXISTS seat_inventory;
DROP TABLE IF EXISTS flights;
DROP TABLE IF EXISTS users;
`

// Migrate creates missing tables. It never drops data.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Reset drops every table and recreates the schema. Test fixtures only.
func Reset(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, dropSQL); err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}
	return Migrate(ctx, pool)
}
