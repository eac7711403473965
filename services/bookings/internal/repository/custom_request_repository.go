package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/provence-bookings/services/bookings/internal/domain"
)

type CustomRequestRepository interface {
	Create(ctx context.Context, in *domain.CustomRequestInput) (*domain.CustomRequest, error)
}

type customRequestRepository struct {
	pool *pgxpool.Pool
}

func NewCustomRequestRepository(pool *pgxpool.Pool) CustomRequestRepository {
	return &customRequestRepository{pool: pool}
}

func (r *customRequestRepository) Create(ctx context.Context, in *domain.CustomRequestInput) (*domain.CustomRequest, error) {
	const q = `INSERT INTO custom_requests (name, email, phone, preferred_dates, group_size, interests, message, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, name, email, phone, preferred_dates, group_size, interests, message, status, created_at`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var cr domain.CustomRequest
	err := r.pool.QueryRow(ctx, q,
		in.Name, in.Email, in.Phone, in.PreferredDates, in.GroupSize, nonNil(in.Interests), in.Message, domain.CustomRequestNew,
	).Scan(
		&cr.ID, &cr.Name, &cr.Email, &cr.Phone, &cr.PreferredDates, &cr.GroupSize, &cr.Interests, &cr.Message, &cr.Status, &cr.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cr, nil
}
