package api

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/pkg/httputil"
)

// SchoolContextKey is the key for storing the resolved school context
type SchoolContextKey struct{}

// SchoolContextProvider resolves the tenant school for school-scoped routes.
// Resolution order: request context, X-School-ID header, school_id query
// param, dev-mode default. Resolved schools are cached per process.
type SchoolContextProvider struct {
	db              *sql.DB
	defaultSchoolID string
	cache           map[string]*domain.School
	cacheMu         sync.RWMutex
	devMode         bool
}

// NewSchoolContextProvider creates a new provider
func NewSchoolContextProvider(db *sql.DB) *SchoolContextProvider {
	devMode := os.Getenv("DEV_MODE") == "true" || os.Getenv("ENVIRONMENT") == "development"

	return &SchoolContextProvider{
		db:              db,
		defaultSchoolID: os.Getenv("DEFAULT_SCHOOL_ID"),
		cache:           make(map[string]*domain.School),
		devMode:         devMode,
	}
}

// ExtractSchoolID extracts the school ID from the request with the fallback
// chain above. Header and query values must parse as UUIDs; malformed values
// fall through to the next source.
func (p *SchoolContextProvider) ExtractSchoolID(r *http.Request) (string, error) {
	if school := SchoolFromContext(r.Context()); school != nil {
		return school.ID, nil
	}

	if id := r.Header.Get("X-School-ID"); id != "" {
		if _, err := uuid.Parse(id); err == nil {
			return id, nil
		}
	}

	if id := r.URL.Query().Get("school_id"); id != "" {
		if _, err := uuid.Parse(id); err == nil {
			return id, nil
		}
	}

	if p.devMode && p.defaultSchoolID != "" {
		return p.defaultSchoolID, nil
	}

	return "", fmt.Errorf("school ID not found in request")
}

// GetSchool retrieves the school row, consulting the cache first.
func (p *SchoolContextProvider) GetSchool(ctx context.Context, id string) (*domain.School, error) {
	p.cacheMu.RLock()
	if cached, ok := p.cache[id]; ok {
		p.cacheMu.RUnlock()
		return cached, nil
	}
	p.cacheMu.RUnlock()

	var school domain.School
	err := p.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(email_address, ''), COALESCE(crest_url, '')
		FROM schools
		WHERE id = $1
	`, id).Scan(&school.ID, &school.Name, &school.EmailAddress, &school.CrestURL)
	if err != nil {
		return nil, err
	}

	p.cacheMu.Lock()
	p.cache[id] = &school
	p.cacheMu.Unlock()

	return &school, nil
}

// Invalidate drops a school from the cache. Called after school updates so
// renamed schools don't serve stale context for the life of the process.
func (p *SchoolContextProvider) Invalidate(id string) {
	p.cacheMu.Lock()
	delete(p.cache, id)
	p.cacheMu.Unlock()
}

// RequireSchool rejects requests that carry no resolvable school context.
// Missing context returns 401; a school ID that matches no row returns 403.
func (p *SchoolContextProvider) RequireSchool(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := p.ExtractSchoolID(r)
		if err != nil {
			httputil.Error(w, http.StatusUnauthorized, "school context required")
			return
		}

		school, err := p.GetSchool(r.Context(), id)
		if err != nil {
			httputil.Error(w, http.StatusForbidden, "unknown school")
			return
		}

		ctx := context.WithValue(r.Context(), SchoolContextKey{}, school)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SchoolFromContext retrieves the resolved school from the context.
func SchoolFromContext(ctx context.Context) *domain.School {
	if school, ok := ctx.Value(SchoolContextKey{}).(*domain.School); ok {
		return school
	}
	return nil
}

// SchoolIDFromContext retrieves the resolved school's ID, or "" when the
// request did not pass through RequireSchool.
func SchoolIDFromContext(ctx context.Context) string {
	if school := SchoolFromContext(ctx); school != nil {
		return school.ID
	}
	return ""
}
