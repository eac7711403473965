package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const idempotencyTTL = 24 * time.Hour

// IdempotencyRepository maps Idempotency-Key headers to the booking they created.
type IdempotencyRepository interface {
	Lookup(ctx context.Context, key string) (bookingID int64, err error)
	Save(ctx context.Context, key string, bookingID int64) error
	CleanupExpired(ctx context.Context) (int64, error)
}

type idempotencyRepository struct {
	pool *pgxpool.Pool
}

func NewIdempotencyRepository(pool *pgxpool.Pool) IdempotencyRepository {
	return &idempotencyRepository{pool: pool}
}

// Lookup returns 0 when the key has not been seen or has expired.
func (r *idempotencyRepository) Lookup(ctx context.Context, key string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var bookingID int64
	err := r.pool.QueryRow(ctx,
		`SELECT booking_id FROM booking_idempotency WHERE key_hash=$1 AND expires_at > now()`,
		hashKey(key),
	).Scan(&bookingID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return bookingID, err
}

func (r *idempotencyRepository) Save(ctx context.Context, key string, bookingID int64) error {
	const q = `
		INSERT INTO booking_idempotency (key_hash, booking_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key_hash) DO NOTHING`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, hashKey(key), bookingID, time.Now().Add(idempotencyTTL))
	return err
}

func (r *idempotencyRepository) CleanupExpired(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, `DELETE FROM booking_idempotency WHERE expires_at < now()`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// hashKey keeps raw client keys out of the table.
func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
