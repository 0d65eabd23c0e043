// Package resolver turns object references into objects by dispatching on the
// reference namespace.
package resolver

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/Harshitk-cp/vetpms/internal/apperr"
	"github.com/Harshitk-cp/vetpms/internal/domain"
	"github.com/Harshitk-cp/vetpms/internal/store"
)

type entry struct {
	pattern  string
	resolver domain.Resolver
}

// Registry maps namespace patterns to resolvers. Exact namespaces win over
// wildcard patterns; among wildcards the longest pattern wins.
type Registry struct {
	mu      sync.RWMutex
	entries []entry
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register binds pattern (e.g. "party.patientpet", "party.*" or "*") to r,
// replacing any resolver already bound to the same pattern.
func (g *Registry) Register(pattern string, r domain.Resolver) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.entries {
		if g.entries[i].pattern == pattern {
			g.entries[i].resolver = r
			return
		}
	}
	g.entries = append(g.entries, entry{pattern: pattern, resolver: r})
	sort.SliceStable(g.entries, func(i, j int) bool {
		return specificity(g.entries[i].pattern) > specificity(g.entries[j].pattern)
	})
}

func specificity(pattern string) int {
	if !strings.Contains(pattern, "*") {
		return 1 << 20
	}
	return len(pattern)
}

func (g *Registry) lookup(namespace string) domain.Resolver {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, e := range g.entries {
		if domain.MatchShortName(e.pattern, namespace) {
			return e.resolver
		}
	}
	return nil
}

// Resolve returns the object ref points at. A reference that does not resolve
// yields REFERENCE_NOT_FOUND; an unknown namespace yields REFERENCE_NO_RESOLVER.
func (g *Registry) Resolve(ctx context.Context, ref domain.Reference) (*domain.Object, error) {
	if ref.IsZero() {
		return nil, apperr.New(apperr.CodeReferenceInvalid, "Reference", ref.String())
	}
	r := g.lookup(ref.Namespace())
	if r == nil {
		return nil, apperr.New(apperr.CodeNoResolver, "Namespace", ref.Namespace())
	}
	o, err := r.Resolve(ctx, ref)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Wrap(err, apperr.CodeReferenceNotFound, "Reference", ref.String())
		}
		if errors.Is(err, domain.ErrInvalidReference) {
			return nil, apperr.Wrap(err, apperr.CodeReferenceInvalid, "Reference", ref.String())
		}
		return nil, err
	}
	return o, nil
}

// ResolveAll resolves refs in order. With skipMissing, references that do not
// resolve are left out instead of failing the call.
func (g *Registry) ResolveAll(ctx context.Context, refs []domain.Reference, skipMissing bool) ([]*domain.Object, error) {
	out := make([]*domain.Object, 0, len(refs))
	for _, ref := range refs {
		o, err := g.Resolve(ctx, ref)
		if err != nil {
			if skipMissing && apperr.IsCode(err, apperr.CodeReferenceNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}
