package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/provence-bookings/services/bookings/internal/domain"
)

type ReviewRepository interface {
	Create(ctx context.Context, req *domain.ReviewRequest) (*domain.Review, error)
	ListByStatus(ctx context.Context, status domain.ReviewStatus, limit int) ([]domain.Review, error)
	SetStatus(ctx context.Context, id int64, status domain.ReviewStatus) (bool, error)
}

type reviewRepository struct {
	pool *pgxpool.Pool
}

func NewReviewRepository(pool *pgxpool.Pool) ReviewRepository {
	return &reviewRepository{pool: pool}
}

const reviewCols = `id, name, location, experience_id, rating, body, status, created_at`

func (r *reviewRepository) Create(ctx context.Context, req *domain.ReviewRequest) (*domain.Review, error) {
	const q = `INSERT INTO reviews (name, location, experience_id, rating, body, status)
		VALUES ($1,$2,$3,$4,$5,'pending') RETURNING ` + reviewCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var rv domain.Review
	var status string
	err := r.pool.QueryRow(ctx, q, req.Name, req.Location, req.ExperienceID, req.Rating, req.Text).Scan(
		&rv.ID, &rv.Name, &rv.Location, &rv.ExperienceID, &rv.Rating, &rv.Text, &status, &rv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rv.Status = domain.ReviewStatus(status)
	return &rv, nil
}

func (r *reviewRepository) ListByStatus(ctx context.Context, status domain.ReviewStatus, limit int) ([]domain.Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	const q = `SELECT ` + reviewCols + ` FROM reviews WHERE status=$1 ORDER BY created_at DESC LIMIT $2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		var rv domain.Review
		var st string
		if err := rows.Scan(&rv.ID, &rv.Name, &rv.Location, &rv.ExperienceID, &rv.Rating, &rv.Text, &st, &rv.CreatedAt); err != nil {
			return nil, err
		}
		rv.Status = domain.ReviewStatus(st)
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

func (r *reviewRepository) SetStatus(ctx context.Context, id int64, status domain.ReviewStatus) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `UPDATE reviews SET status=$2 WHERE id=$1`, id, string(status))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
