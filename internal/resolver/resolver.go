// Package resolver turns a namespaced recipe key into a concrete Recipe by
// routing external keys to the recipe API and local keys to the recipe cache.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/starford/recipebox/internal/apperr"
	"github.com/starford/recipebox/internal/models"
	"github.com/starford/recipebox/internal/recipekey"
	"github.com/starford/recipebox/internal/remote"
)

// Source fetches raw recipe documents by external id.
type Source interface {
	FetchDetail(ctx context.Context, id uint64) (*remote.RecipeDocument, error)
}

// Cache looks up custom recipes by local id.
type Cache interface {
	Find(id uint64) (models.Recipe, error)
}

// Resolver routes recipe keys. Remote results are never cached and failed
// requests are never retried.
type Resolver struct {
	source Source
	cache  Cache
	logger *slog.Logger
}

// New creates a Resolver.
func New(source Source, cache Cache, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		source: source,
		cache:  cache,
		logger: logger.With(slog.String("component", "resolver")),
	}
}

// Resolve returns the recipe addressed by key. Errors are classified with
// the apperr sentinels. If ctx ends while the remote call is in flight,
// Resolve stops waiting and returns ctx.Err().
func (r *Resolver) Resolve(ctx context.Context, key string) (models.Recipe, error) {
	k, err := recipekey.Parse(key)
	if err != nil {
		resolveTotal.WithLabelValues("unknown", "invalid_key").Inc()
		r.logger.Debug("rejected recipe key", slog.String("key", key))
		return models.Recipe{}, fmt.Errorf("%w: %v", apperr.ErrInvalidKey, err)
	}

	if k.IsLocal() {
		return r.resolveLocal(k)
	}
	return r.resolveExternal(ctx, k)
}

func (r *Resolver) resolveLocal(k recipekey.Key) (models.Recipe, error) {
	recipe, err := r.cache.Find(k.ID)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		resolveTotal.WithLabelValues("local", "missing").Inc()
		r.logger.Debug("custom recipe missing", slog.String("key", k.String()))
		return models.Recipe{}, fmt.Errorf("recipe %s: %w", k, apperr.ErrCustomRecipeMissing)
	case err != nil:
		resolveTotal.WithLabelValues("local", "error").Inc()
		return models.Recipe{}, fmt.Errorf("recipe %s: %w", k, err)
	}
	resolveTotal.WithLabelValues("local", "ok").Inc()
	return recipe, nil
}

type fetchResult struct {
	doc *remote.RecipeDocument
	err error
}

func (r *Resolver) resolveExternal(ctx context.Context, k recipekey.Key) (models.Recipe, error) {
	start := time.Now()
	done := make(chan fetchResult, 1)
	go func() {
		doc, err := r.source.FetchDetail(ctx, k.ID)
		done <- fetchResult{doc: doc, err: err}
	}()

	var res fetchResult
	select {
	case <-ctx.Done():
		resolveTotal.WithLabelValues("external", "abandoned").Inc()
		return models.Recipe{}, ctx.Err()
	case res = <-done:
	}
	remoteFetchDuration.Observe(time.Since(start).Seconds())

	if res.err != nil {
		err := classify(res.err)
		resolveTotal.WithLabelValues("external", outcome(err)).Inc()
		r.logger.Warn("recipe fetch failed",
			slog.String("key", k.String()),
			slog.String("error", err.Error()))
		return models.Recipe{}, fmt.Errorf("recipe %s: %w", k, err)
	}
	if res.doc == nil {
		resolveTotal.WithLabelValues("external", "transient").Inc()
		return models.Recipe{}, fmt.Errorf("recipe %s: %w", k, &apperr.RemoteTransientError{
			Status: http.StatusOK,
			Err:    errors.New("empty response"),
		})
	}

	resolveTotal.WithLabelValues("external", "ok").Inc()
	return Normalize(k.ID, res.doc), nil
}

// classify maps an API failure onto the remote error taxonomy.
func classify(err error) error {
	var se *remote.StatusError
	if !errors.As(err, &se) {
		return &apperr.RemoteTransientError{Status: 0, Err: err}
	}
	switch se.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", apperr.ErrRemoteUnauthorized, se.Body)
	case http.StatusPaymentRequired, http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", apperr.ErrRemoteRateLimited, se.Body)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", apperr.ErrRemoteNotFound, se.Body)
	default:
		return &apperr.RemoteTransientError{Status: se.StatusCode, Err: se}
	}
}

func outcome(err error) string {
	switch {
	case errors.Is(err, apperr.ErrRemoteUnauthorized):
		return "unauthorized"
	case errors.Is(err, apperr.ErrRemoteRateLimited):
		return "rate_limited"
	case errors.Is(err, apperr.ErrRemoteNotFound):
		return "not_found"
	default:
		return "transient"
	}
}
