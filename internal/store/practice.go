package store

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/vetpms/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PracticeStore struct {
	db *pgxpool.Pool
}

func NewPracticeStore(db *pgxpool.Pool) *PracticeStore {
	return &PracticeStore{db: db}
}

func (s *PracticeStore) Create(ctx context.Context, p *domain.Practice) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO practices (id, name, api_key_hash) VALUES ($1, $2, $3)
		 RETURNING created_at, updated_at`,
		p.ID, p.Name, p.APIKeyHash,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *PracticeStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Practice, error) {
	return s.getOne(ctx,
		`SELECT id, name, api_key_hash, created_at, updated_at
		 FROM practices WHERE id = $1`, id)
}

func (s *PracticeStore) GetByAPIKeyHash(ctx context.Context, apiKeyHash string) (*domain.Practice, error) {
	return s.getOne(ctx,
		`SELECT id, name, api_key_hash, created_at, updated_at
		 FROM practices WHERE api_key_hash = $1`, apiKeyHash)
}

func (s *PracticeStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM practices WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PracticeStore) getOne(ctx context.Context, query string, arg any) (*domain.Practice, error) {
	p := &domain.Practice{}
	err := s.db.QueryRow(ctx, query, arg).
		Scan(&p.ID, &p.Name, &p.APIKeyHash, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}
