package resolver

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/recipebox/internal/apperr"
	"github.com/starford/recipebox/internal/models"
	"github.com/starford/recipebox/internal/remote"
)

type stubSource struct {
	doc   *remote.RecipeDocument
	err   error
	calls int
	block chan struct{}
}

func (s *stubSource) FetchDetail(ctx context.Context, id uint64) (*remote.RecipeDocument, error) {
	s.calls++
	if s.block != nil {
		<-s.block
	}
	return s.doc, s.err
}

type stubCache map[uint64]models.Recipe

func (c stubCache) Find(id uint64) (models.Recipe, error) {
	r, ok := c[id]
	if !ok {
		return models.Recipe{}, apperr.ErrNotFound
	}
	return r, nil
}

func ptr[T any](v T) *T { return &v }

func TestResolve_ExternalProteinRendering(t *testing.T) {
	src := &stubSource{doc: &remote.RecipeDocument{
		ID:    42,
		Title: "Lentil stew",
		Nutrition: &remote.NutritionBlock{Nutrients: []remote.Nutrient{
			{Name: "Protein", Amount: ptr(20.0), Unit: ptr("g")},
		}},
	}}
	r := New(src, stubCache{}, nil)

	got, err := r.Resolve(context.Background(), "a42")
	require.NoError(t, err)
	require.NotNil(t, got.Nutrition)
	assert.Equal(t, "20g", got.Nutrition.Protein)
	assert.Equal(t, "a42", got.Key)
	assert.Equal(t, uint64(42), got.ID)
}

func TestResolve_LocalMissingIsCustomRecipeMissing(t *testing.T) {
	src := &stubSource{}
	r := New(src, stubCache{}, nil)

	_, err := r.Resolve(context.Background(), "c7")
	require.ErrorIs(t, err, apperr.ErrCustomRecipeMissing)
	assert.NotErrorIs(t, err, apperr.ErrNotFound)
	assert.Zero(t, src.calls)
}

func TestResolve_LocalFromCache(t *testing.T) {
	cache := stubCache{7: {ID: 7, Key: "c7", Title: "Grandma's pie"}}
	r := New(&stubSource{}, cache, nil)

	got, err := r.Resolve(context.Background(), "c7")
	require.NoError(t, err)
	assert.Equal(t, "Grandma's pie", got.Title)
}

func TestResolve_InvalidKeyNeverReachesSources(t *testing.T) {
	src := &stubSource{}
	r := New(src, stubCache{}, nil)

	for _, key := range []string{"", "b12", "a", "a-1", "c1x"} {
		_, err := r.Resolve(context.Background(), key)
		assert.ErrorIs(t, err, apperr.ErrInvalidKey, key)
	}
	assert.Zero(t, src.calls)
}

func TestResolve_ClassifiesRemoteStatus(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, apperr.ErrRemoteUnauthorized},
		{http.StatusPaymentRequired, apperr.ErrRemoteRateLimited},
		{http.StatusTooManyRequests, apperr.ErrRemoteRateLimited},
		{http.StatusNotFound, apperr.ErrRemoteNotFound},
		{http.StatusServiceUnavailable, apperr.ErrRemoteTransient},
		{http.StatusTeapot, apperr.ErrRemoteTransient},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			src := &stubSource{err: &remote.StatusError{StatusCode: tt.status, Body: "nope"}}
			_, err := New(src, stubCache{}, nil).Resolve(context.Background(), "a1")
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 1, src.calls, "no retries")
		})
	}
}

func TestResolve_TransientCarriesStatus(t *testing.T) {
	src := &stubSource{err: &remote.StatusError{StatusCode: http.StatusBadGateway}}
	_, err := New(src, stubCache{}, nil).Resolve(context.Background(), "a1")

	var te *apperr.RemoteTransientError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusBadGateway, te.Status)
}

func TestResolve_TransportErrorIsTransient(t *testing.T) {
	src := &stubSource{err: errors.New("connection refused")}
	_, err := New(src, stubCache{}, nil).Resolve(context.Background(), "a1")

	var te *apperr.RemoteTransientError
	require.True(t, errors.As(err, &te))
	assert.Zero(t, te.Status)
}

func TestResolve_AbandonsOnCancel(t *testing.T) {
	src := &stubSource{block: make(chan struct{}), doc: &remote.RecipeDocument{}}
	defer close(src.block)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := New(src, stubCache{}, nil).Resolve(ctx, "a5")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
