package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type PracticeStore interface {
	Create(ctx context.Context, p *Practice) error
	GetByID(ctx context.Context, id uuid.UUID) (*Practice, error)
	GetByAPIKeyHash(ctx context.Context, apiKeyHash string) (*Practice, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ObjectFilter narrows List results. ShortName may contain wildcards.
type ObjectFilter struct {
	ShortName  string
	ActiveOnly bool
	Name       string
	Limit      int
	Offset     int
}

type ObjectStore interface {
	Create(ctx context.Context, o *Object) error
	GetByID(ctx context.Context, id uuid.UUID, practiceID uuid.UUID) (*Object, error)
	// Update writes o if its version matches the stored one and bumps the version.
	Update(ctx context.Context, o *Object) error
	Delete(ctx context.Context, id uuid.UUID, practiceID uuid.UUID) error
	List(ctx context.Context, practiceID uuid.UUID, f ObjectFilter) ([]Object, error)
	// Resolve loads the object a reference points at, whatever practice owns it.
	Resolve(ctx context.Context, ref Reference) (*Object, error)
	// Referencing returns the practice's other objects holding a relationship
	// with ref at either end, whether or not it is still active.
	Referencing(ctx context.Context, practiceID uuid.UUID, ref Reference) ([]Object, error)
	// DeactivateExpired clears the active flag on objects whose period ended before now.
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// Resolver fetches the object a reference points at.
type Resolver interface {
	Resolve(ctx context.Context, ref Reference) (*Object, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, ref Reference) (*Object, error)

func (f ResolverFunc) Resolve(ctx context.Context, ref Reference) (*Object, error) {
	return f(ctx, ref)
}
