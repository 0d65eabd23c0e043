package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Harshitk-cp/vetpms/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const objectColumns = `id, practice_id, archetype, name, description, active, active_from, active_to,
	details, contacts, relationships, version, created_at, updated_at`

type ObjectStore struct {
	db *pgxpool.Pool
}

func NewObjectStore(db *pgxpool.Pool) *ObjectStore {
	return &ObjectStore{db: db}
}

type encodedObject struct {
	details, contacts, relationships []byte
}

func encode(o *domain.Object) (encodedObject, error) {
	var e encodedObject
	var err error
	details := o.Details
	if details == nil {
		details = domain.Attributes{}
	}
	if e.details, err = json.Marshal(details); err != nil {
		return e, fmt.Errorf("marshal details: %w", err)
	}
	contacts := o.Contacts
	if contacts == nil {
		contacts = []domain.Contact{}
	}
	if e.contacts, err = json.Marshal(contacts); err != nil {
		return e, fmt.Errorf("marshal contacts: %w", err)
	}
	rels := o.Relationships
	if rels == nil {
		rels = []domain.Relationship{}
	}
	if e.relationships, err = json.Marshal(rels); err != nil {
		return e, fmt.Errorf("marshal relationships: %w", err)
	}
	return e, nil
}

func (s *ObjectStore) Create(ctx context.Context, o *domain.Object) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	e, err := encode(o)
	if err != nil {
		return err
	}
	err = s.db.QueryRow(ctx,
		`INSERT INTO objects (id, practice_id, archetype, short_name, name, description, active,
		                      active_from, active_to, details, contacts, relationships, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 1)
		 RETURNING version, created_at, updated_at`,
		o.ID, o.PracticeID, o.Archetype.String(), o.Archetype.ShortName(), o.Name, o.Description, o.Active,
		o.From, o.To, e.details, e.contacts, e.relationships,
	).Scan(&o.Version, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *ObjectStore) GetByID(ctx context.Context, id uuid.UUID, practiceID uuid.UUID) (*domain.Object, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+objectColumns+` FROM objects WHERE id = $1 AND practice_id = $2`,
		id, practiceID,
	)
	return scanObject(row)
}

func (s *ObjectStore) Resolve(ctx context.Context, ref domain.Reference) (*domain.Object, error) {
	id, err := ref.UUID()
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRow(ctx,
		`SELECT `+objectColumns+` FROM objects WHERE id = $1 AND short_name = $2`,
		id, ref.Namespace(),
	)
	return scanObject(row)
}

func (s *ObjectStore) Update(ctx context.Context, o *domain.Object) error {
	e, err := encode(o)
	if err != nil {
		return err
	}
	err = s.db.QueryRow(ctx,
		`UPDATE objects
		 SET name = $4, description = $5, active = $6, active_from = $7, active_to = $8,
		     details = $9, contacts = $10, relationships = $11,
		     version = version + 1, updated_at = NOW()
		 WHERE id = $1 AND practice_id = $2 AND version = $3
		 RETURNING version, updated_at`,
		o.ID, o.PracticeID, o.Version, o.Name, o.Description, o.Active, o.From, o.To,
		e.details, e.contacts, e.relationships,
	).Scan(&o.Version, &o.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	var exists bool
	if err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM objects WHERE id = $1 AND practice_id = $2)`,
		o.ID, o.PracticeID,
	).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrVersionMismatch
}

func (s *ObjectStore) Delete(ctx context.Context, id uuid.UUID, practiceID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM objects WHERE id = $1 AND practice_id = $2`, id, practiceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ObjectStore) List(ctx context.Context, practiceID uuid.UUID, f domain.ObjectFilter) ([]domain.Object, error) {
	pattern := f.ShortName
	if pattern == "" {
		pattern = "*"
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(ctx,
		`SELECT `+objectColumns+` FROM objects
		 WHERE practice_id = $1
		   AND short_name LIKE $2
		   AND ($3 = FALSE OR active)
		   AND ($4 = '' OR LOWER(name) = LOWER($4))
		 ORDER BY name, id
		 LIMIT $5 OFFSET $6`,
		practiceID, likePattern(pattern), f.ActiveOnly, f.Name, limit, f.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var objects []domain.Object
	for rows.Next() {
		o, err := scanObject(rows)
		if err != nil {
			return nil, err
		}
		objects = append(objects, *o)
	}
	return objects, rows.Err()
}

func (s *ObjectStore) Referencing(ctx context.Context, practiceID uuid.UUID, ref domain.Reference) ([]domain.Object, error) {
	asTarget, err := json.Marshal([]map[string]domain.Reference{{"target": ref}})
	if err != nil {
		return nil, err
	}
	asSource, err := json.Marshal([]map[string]domain.Reference{{"source": ref}})
	if err != nil {
		return nil, err
	}
	id, err := ref.UUID()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx,
		`SELECT `+objectColumns+` FROM objects
		 WHERE practice_id = $1
		   AND id <> $2
		   AND (relationships @> $3::jsonb OR relationships @> $4::jsonb)
		 ORDER BY id`,
		practiceID, id, asTarget, asSource,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var objects []domain.Object
	for rows.Next() {
		o, err := scanObject(rows)
		if err != nil {
			return nil, err
		}
		objects = append(objects, *o)
	}
	return objects, rows.Err()
}

func (s *ObjectStore) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE objects SET active = FALSE, version = version + 1, updated_at = NOW()
		 WHERE active AND active_to IS NOT NULL AND active_to <= $1`,
		now,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// likePattern turns a short name wildcard pattern into a LIKE pattern.
func likePattern(pattern string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`, `*`, `%`)
	return r.Replace(pattern)
}

func scanObject(row pgx.Row) (*domain.Object, error) {
	o := &domain.Object{}
	var archetype string
	var details, contacts, relationships []byte
	err := row.Scan(&o.ID, &o.PracticeID, &archetype, &o.Name, &o.Description, &o.Active,
		&o.From, &o.To, &details, &contacts, &relationships, &o.Version, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if o.Archetype, err = domain.ParseArchetypeID(archetype); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(details, &o.Details); err != nil {
		return nil, fmt.Errorf("unmarshal details of %s: %w", o.ID, err)
	}
	if err := json.Unmarshal(contacts, &o.Contacts); err != nil {
		return nil, fmt.Errorf("unmarshal contacts of %s: %w", o.ID, err)
	}
	if err := json.Unmarshal(relationships, &o.Relationships); err != nil {
		return nil, fmt.Errorf("unmarshal relationships of %s: %w", o.ID, err)
	}
	if o.Details == nil {
		o.Details = domain.Attributes{}
	}
	return o, nil
}
