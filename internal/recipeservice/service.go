// Package recipeservice implements the recipe use cases on top of the
// stores, the recipe cache and the resolver.
package recipeservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"

	"github.com/starford/recipebox/internal/apperr"
	"github.com/starford/recipebox/internal/models"
	"github.com/starford/recipebox/internal/recipecache"
	"github.com/starford/recipebox/internal/recipekey"
	"github.com/starford/recipebox/internal/store"
)

// Event types passed to the Notifier.
const (
	EventRecipeSaved   = "recipe.saved"
	EventRecipeUnsaved = "recipe.unsaved"
	EventRecipeRated   = "recipe.rated"
	EventFridgeUpdated = "fridge.updated"
	EventRecipeCreated = "recipe.created"
)

// Change is the payload of every event.
type Change struct {
	UserID    int64    `json:"user_id"`
	RecipeKey string   `json:"recipe_key,omitempty"`
	Stars     *float64 `json:"stars,omitempty"`
	Item      string   `json:"item,omitempty"`
}

// Notifier receives change events after a successful write.
type Notifier interface {
	Notify(eventType string, data any)
}

// Resolver resolves a namespaced recipe key.
type Resolver interface {
	Resolve(ctx context.Context, key string) (models.Recipe, error)
}

// Deps holds the collaborators of a Service.
type Deps struct {
	Resolver Resolver
	Links    *store.Links
	Ratings  *store.Ratings
	Fridge   *store.Fridge
	Cache    *recipecache.Cache
	Notifier Notifier
	Logger   *slog.Logger
	Now      func() time.Time
}

// Service coordinates the stores. The stores are independent: a use case
// that touches two of them performs two separate writes.
type Service struct {
	resolver Resolver
	links    *store.Links
	ratings  *store.Ratings
	fridge   *store.Fridge
	cache    *recipecache.Cache
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time

	// serialises local id allocation with the cache write
	createMu sync.Mutex
}

// NewService creates a new recipe service.
func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Service{
		resolver: d.Resolver,
		links:    d.Links,
		ratings:  d.Ratings,
		fridge:   d.Fridge,
		cache:    d.Cache,
		notifier: d.Notifier,
		logger:   d.Logger.With(slog.String("component", "recipeservice")),
		now:      d.Now,
	}
}

func (s *Service) notify(eventType string, c Change) {
	if s.notifier != nil {
		s.notifier.Notify(eventType, c)
	}
}

// canonicalKey parses key and returns its canonical text form.
func canonicalKey(key string) (string, error) {
	k, err := recipekey.Parse(strings.TrimSpace(key))
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrInvalidKey, err)
	}
	return k.String(), nil
}

// ViewRecipe returns the full recipe for key.
func (s *Service) ViewRecipe(ctx context.Context, key string) (models.Recipe, error) {
	return s.resolver.Resolve(ctx, strings.TrimSpace(key))
}

// SaveRecipe links key to the user. Saving twice is apperr.ErrAlreadyExists.
func (s *Service) SaveRecipe(_ context.Context, userID int64, key string) (models.SavedRecipe, error) {
	ck, err := canonicalKey(key)
	if err != nil {
		return models.SavedRecipe{}, err
	}
	if s.links.Exists(store.UserRecipe{UserID: userID, RecipeKey: ck}) {
		return models.SavedRecipe{}, fmt.Errorf("recipe %s is already saved: %w", ck, apperr.ErrAlreadyExists)
	}
	saved, err := s.links.Put(models.SavedRecipe{UserID: userID, RecipeKey: ck, SavedAt: s.now().UTC()})
	if err != nil {
		return models.SavedRecipe{}, err
	}
	s.logger.Info("recipe saved", slog.Int64("user_id", userID), slog.String("recipe_key", ck))
	s.notify(EventRecipeSaved, Change{UserID: userID, RecipeKey: ck})
	return saved, nil
}

// UnsaveRecipe removes the user's link to key.
func (s *Service) UnsaveRecipe(_ context.Context, userID int64, key string) error {
	ck, err := canonicalKey(key)
	if err != nil {
		return err
	}
	removed, err := s.links.Delete(store.UserRecipe{UserID: userID, RecipeKey: ck})
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("recipe %s is not saved: %w", ck, apperr.ErrNotFound)
	}
	s.notify(EventRecipeUnsaved, Change{UserID: userID, RecipeKey: ck})
	return nil
}

// SetFavourite flips the favourite flag of a saved recipe in place.
func (s *Service) SetFavourite(_ context.Context, userID int64, key string, favourite bool) (models.SavedRecipe, error) {
	ck, err := canonicalKey(key)
	if err != nil {
		return models.SavedRecipe{}, err
	}
	link, err := s.links.Get(store.UserRecipe{UserID: userID, RecipeKey: ck})
	if err != nil {
		return models.SavedRecipe{}, fmt.Errorf("recipe %s is not saved: %w", ck, apperr.ErrNotFound)
	}
	if link.Favourite == favourite {
		return link, nil
	}
	link.Favourite = favourite
	link, err = s.links.Put(link)
	if err != nil {
		return models.SavedRecipe{}, err
	}
	s.notify(EventRecipeSaved, Change{UserID: userID, RecipeKey: ck})
	return link, nil
}

// SavedRecipes lists the user's saved recipes, oldest first.
func (s *Service) SavedRecipes(_ context.Context, userID int64) []models.SavedRecipe {
	return nonNil(s.links.ScanBy(store.ForUser(userID)))
}

// FavouriteRecipes lists the saved recipes flagged as favourite.
func (s *Service) FavouriteRecipes(ctx context.Context, userID int64) []models.SavedRecipe {
	out := []models.SavedRecipe{}
	for _, link := range s.SavedRecipes(ctx, userID) {
		if link.Favourite {
			out = append(out, link)
		}
	}
	return out
}

// RateRecipe records stars for key, replacing any previous rating.
func (s *Service) RateRecipe(_ context.Context, userID int64, key string, stars float64) (models.Rating, error) {
	ck, err := canonicalKey(key)
	if err != nil {
		return models.Rating{}, err
	}
	if !models.ValidStars(stars) {
		return models.Rating{}, fmt.Errorf("%w: %v", apperr.ErrInvalidRating, stars)
	}
	rating, err := s.ratings.Put(models.Rating{UserID: userID, RecipeKey: ck, Stars: stars, UpdatedAt: s.now().UTC()})
	if err != nil {
		return models.Rating{}, err
	}
	s.notify(EventRecipeRated, Change{UserID: userID, RecipeKey: ck, Stars: &rating.Stars})
	return rating, nil
}

// RatingFor returns the user's rating of key.
func (s *Service) RatingFor(_ context.Context, userID int64, key string) (models.Rating, error) {
	ck, err := canonicalKey(key)
	if err != nil {
		return models.Rating{}, err
	}
	r, err := s.ratings.Get(store.UserRecipe{UserID: userID, RecipeKey: ck})
	if err != nil {
		return models.Rating{}, fmt.Errorf("recipe %s has no rating: %w", ck, apperr.ErrNotFound)
	}
	return r, nil
}

// ClearRating deletes the user's rating of key.
func (s *Service) ClearRating(_ context.Context, userID int64, key string) error {
	ck, err := canonicalKey(key)
	if err != nil {
		return err
	}
	removed, err := s.ratings.Delete(store.UserRecipe{UserID: userID, RecipeKey: ck})
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("recipe %s has no rating: %w", ck, apperr.ErrNotFound)
	}
	s.notify(EventRecipeRated, Change{UserID: userID, RecipeKey: ck})
	return nil
}

// NormalizeItem trims and case-folds a fridge item so "Milk " and "milk"
// are the same entry.
func NormalizeItem(item string) string {
	return cases.Fold().String(strings.TrimSpace(item))
}

// AddFridgeItem adds item to the user's fridge. Re-adding is a no-op.
func (s *Service) AddFridgeItem(_ context.Context, userID int64, item string) (string, error) {
	norm := NormalizeItem(item)
	if norm == "" {
		return "", fmt.Errorf("%w: fridge item must not be blank", apperr.ErrInvalidInput)
	}
	if s.fridge.HasItem(userID, norm) {
		return norm, nil
	}
	if err := s.fridge.AddItem(userID, norm); err != nil {
		return "", err
	}
	s.notify(EventFridgeUpdated, Change{UserID: userID, Item: norm})
	return norm, nil
}

// RemoveFridgeItem removes item from the user's fridge.
func (s *Service) RemoveFridgeItem(_ context.Context, userID int64, item string) error {
	norm := NormalizeItem(item)
	removed, err := s.fridge.RemoveItem(userID, norm)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("fridge item %q: %w", norm, apperr.ErrNotFound)
	}
	s.notify(EventFridgeUpdated, Change{UserID: userID, Item: norm})
	return nil
}

// FridgeItems lists the user's fridge in insertion order.
func (s *Service) FridgeItems(_ context.Context, userID int64) []string {
	return s.fridge.ItemsFor(userID)
}

// CreateCustomRecipe stores a user-authored recipe under the next local id
// and saves it for the user. The cache write and the link write are
// independent; if the link write fails the recipe stays in the cache.
func (s *Service) CreateCustomRecipe(_ context.Context, userID int64, recipe models.Recipe) (models.Recipe, error) {
	if strings.TrimSpace(recipe.Title) == "" {
		return models.Recipe{}, fmt.Errorf("%w: recipe title must not be blank", apperr.ErrInvalidInput)
	}

	s.createMu.Lock()
	recipe.ID = s.cache.NextID()
	recipe.Key = recipekey.NewLocal(recipe.ID).String()
	err := s.cache.Save(recipe)
	s.createMu.Unlock()
	if err != nil {
		return models.Recipe{}, err
	}

	_, err = s.links.Put(models.SavedRecipe{UserID: userID, RecipeKey: recipe.Key, SavedAt: s.now().UTC()})
	if err != nil {
		s.logger.Error("custom recipe stored without link",
			slog.String("event_type", "custom_recipe_unlinked"),
			slog.String("recipe_key", recipe.Key),
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()))
		return recipe, err
	}

	s.logger.Info("custom recipe created", slog.Int64("user_id", userID), slog.String("recipe_key", recipe.Key))
	s.notify(EventRecipeCreated, Change{UserID: userID, RecipeKey: recipe.Key})
	return recipe, nil
}

// IsRecoverable reports whether err is an ordinary user-facing failure
// rather than a storage fault.
func IsRecoverable(err error) bool {
	return !errors.Is(err, apperr.ErrStorageIO) && !errors.Is(err, apperr.ErrStorageCorrupt)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
