package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/recipebox/internal/recipeservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *recipeservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *recipeservice.Service) *Handler {
	return &Handler{svc: svc}
}

// pathParam returns the unescaped URL parameter name.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// userID parses {user}. On failure it writes a 400 and returns false.
func userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "user"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("user id must be an integer"))
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

// GetRecipe handles GET /recipes/{key}.
//
//	@Summary		Get a full recipe by namespaced key
//	@Tags			recipes
//	@Produce		json
//	@Param			key	path		string	true	"Recipe key, e.g. a716429 or c7"
//	@Success		200	{object}	models.Recipe
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Failure		429	{object}	errResponse
//	@Failure		502	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/recipes/{key} [get]
func (h *Handler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	recipe, err := h.svc.ViewRecipe(r.Context(), pathParam(r, "key"))
	if err != nil {
		writeError(w, r, "view recipe", err)
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

// CreateRecipe handles POST /recipes.
//
//	@Summary		Author a custom recipe and save it for the user
//	@Tags			recipes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateRecipeRequest	true	"Recipe to create"
//	@Success		201		{object}	models.Recipe
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/recipes [post]
func (h *Handler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	var req CreateRecipeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	recipe, err := h.svc.CreateCustomRecipe(r.Context(), req.UserID, req.Recipe)
	if err != nil {
		writeError(w, r, "create recipe", err)
		return
	}
	writeJSON(w, http.StatusCreated, recipe)
}

// ListSaved handles GET /users/{user}/saved.
//
//	@Summary		List saved recipes, optionally favourites only
//	@Tags			saved
//	@Produce		json
//	@Param			user		path		int		true	"User id"
//	@Param			favourite	query		bool	false	"Only favourites"
//	@Success		200			{object}	SavedListResponse
//	@Security		BearerAuth
//	@Router			/users/{user}/saved [get]
func (h *Handler) ListSaved(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	if fav, _ := strconv.ParseBool(r.URL.Query().Get("favourite")); fav {
		writeJSON(w, http.StatusOK, SavedListResponse{Saved: h.svc.FavouriteRecipes(r.Context(), user)})
		return
	}
	writeJSON(w, http.StatusOK, SavedListResponse{Saved: h.svc.SavedRecipes(r.Context(), user)})
}

// SaveRecipe handles POST /users/{user}/saved.
//
//	@Summary		Save a recipe for the user
//	@Tags			saved
//	@Accept			json
//	@Produce		json
//	@Param			user	path		int					true	"User id"
//	@Param			body	body		SaveRecipeRequest	true	"Recipe key"
//	@Success		201		{object}	models.SavedRecipe
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/users/{user}/saved [post]
func (h *Handler) SaveRecipe(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	var req SaveRecipeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	saved, err := h.svc.SaveRecipe(r.Context(), user, req.Key)
	if err != nil {
		writeError(w, r, "save recipe", err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// UnsaveRecipe handles DELETE /users/{user}/saved/{key}.
//
//	@Summary		Remove a saved recipe
//	@Tags			saved
//	@Param			user	path	int		true	"User id"
//	@Param			key		path	string	true	"Recipe key"
//	@Success		204		"Removed"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/users/{user}/saved/{key} [delete]
func (h *Handler) UnsaveRecipe(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	if err := h.svc.UnsaveRecipe(r.Context(), user, pathParam(r, "key")); err != nil {
		writeError(w, r, "unsave recipe", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetFavourite handles PUT /users/{user}/saved/{key}/favourite.
//
//	@Summary		Flag or unflag a saved recipe as favourite
//	@Tags			saved
//	@Accept			json
//	@Produce		json
//	@Param			user	path		int					true	"User id"
//	@Param			key		path		string				true	"Recipe key"
//	@Param			body	body		FavouriteRequest	true	"Flag"
//	@Success		200		{object}	models.SavedRecipe
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/users/{user}/saved/{key}/favourite [put]
func (h *Handler) SetFavourite(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	var req FavouriteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Favourite == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("favourite is required"))
		return
	}
	saved, err := h.svc.SetFavourite(r.Context(), user, pathParam(r, "key"), *req.Favourite)
	if err != nil {
		writeError(w, r, "set favourite", err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// GetRating handles GET /users/{user}/ratings/{key}.
//
//	@Summary		Get the user's rating of a recipe
//	@Tags			ratings
//	@Produce		json
//	@Param			user	path		int		true	"User id"
//	@Param			key		path		string	true	"Recipe key"
//	@Success		200		{object}	models.Rating
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/users/{user}/ratings/{key} [get]
func (h *Handler) GetRating(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	rating, err := h.svc.RatingFor(r.Context(), user, pathParam(r, "key"))
	if err != nil {
		writeError(w, r, "get rating", err)
		return
	}
	writeJSON(w, http.StatusOK, rating)
}

// PutRating handles PUT /users/{user}/ratings/{key}.
//
//	@Summary		Rate a recipe (0 to 5 in half stars)
//	@Tags			ratings
//	@Accept			json
//	@Produce		json
//	@Param			user	path		int				true	"User id"
//	@Param			key		path		string			true	"Recipe key"
//	@Param			body	body		RatingRequest	true	"Stars"
//	@Success		200		{object}	models.Rating
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/users/{user}/ratings/{key} [put]
func (h *Handler) PutRating(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	var req RatingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Stars == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("stars is required"))
		return
	}
	rating, err := h.svc.RateRecipe(r.Context(), user, pathParam(r, "key"), *req.Stars)
	if err != nil {
		writeError(w, r, "rate recipe", err)
		return
	}
	writeJSON(w, http.StatusOK, rating)
}

// DeleteRating handles DELETE /users/{user}/ratings/{key}.
//
//	@Summary		Clear the user's rating of a recipe
//	@Tags			ratings
//	@Param			user	path	int		true	"User id"
//	@Param			key		path	string	true	"Recipe key"
//	@Success		204		"Cleared"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/users/{user}/ratings/{key} [delete]
func (h *Handler) DeleteRating(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	if err := h.svc.ClearRating(r.Context(), user, pathParam(r, "key")); err != nil {
		writeError(w, r, "clear rating", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListFridge handles GET /users/{user}/fridge.
//
//	@Summary		List fridge items
//	@Tags			fridge
//	@Produce		json
//	@Param			user	path		int	true	"User id"
//	@Success		200		{object}	FridgeResponse
//	@Security		BearerAuth
//	@Router			/users/{user}/fridge [get]
func (h *Handler) ListFridge(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, FridgeResponse{Items: h.svc.FridgeItems(r.Context(), user)})
}

// AddFridgeItem handles POST /users/{user}/fridge.
//
//	@Summary		Add an item to the fridge (no-op if present)
//	@Tags			fridge
//	@Accept			json
//	@Produce		json
//	@Param			user	path		int					true	"User id"
//	@Param			body	body		FridgeItemRequest	true	"Item"
//	@Success		200		{object}	FridgeResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/users/{user}/fridge [post]
func (h *Handler) AddFridgeItem(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	var req FridgeItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if _, err := h.svc.AddFridgeItem(r.Context(), user, req.Item); err != nil {
		writeError(w, r, "add fridge item", err)
		return
	}
	writeJSON(w, http.StatusOK, FridgeResponse{Items: h.svc.FridgeItems(r.Context(), user)})
}

// RemoveFridgeItem handles DELETE /users/{user}/fridge/{item}.
//
//	@Summary		Remove an item from the fridge
//	@Tags			fridge
//	@Param			user	path	int		true	"User id"
//	@Param			item	path	string	true	"Item"
//	@Success		204		"Removed"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/users/{user}/fridge/{item} [delete]
func (h *Handler) RemoveFridgeItem(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	if err := h.svc.RemoveFridgeItem(r.Context(), user, pathParam(r, "item")); err != nil {
		writeError(w, r, "remove fridge item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
