package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/recipebox/internal/recipeservice"
	"github.com/starford/recipebox/internal/remote"
	"github.com/starford/recipebox/internal/resolver"
	"github.com/starford/recipebox/internal/testutil"
)

// upstream is a fake recipe API: id 716429 exists, 401/402/404 are
// produced for ids 401, 402 and anything else.
func upstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/recipes/716429/information":
			w.Write([]byte(`{"id":716429,"title":"Pasta with Garlic","servings":2,"readyInMinutes":45,
				"extendedIngredients":[{"name":"garlic","amount":2,"unit":"cloves"}],
				"analyzedInstructions":[{"steps":[{"number":1,"step":"Boil water."}]}],
				"nutrition":{"nutrients":[{"name":"Protein","amount":20,"unit":"g"}]}}`))
		case "/recipes/401/information":
			http.Error(w, "bad key", http.StatusUnauthorized)
		case "/recipes/402/information":
			http.Error(w, "quota", http.StatusPaymentRequired)
		default:
			http.Error(w, "missing", http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// testEnv sets up a temp data directory, stores, service and router.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) (*recipeservice.Service, http.Handler) {
	t.Helper()
	return testEnvWithSSE(t, authToken, nil)
}

func testEnvWithSSE(t *testing.T, authToken string, sseHandler http.Handler) (*recipeservice.Service, http.Handler) {
	t.Helper()

	_, fsys := testutil.TestDataDir(t)
	set, cache := testutil.TestStores(t, fsys)

	client, err := remote.New(remote.Config{BaseURL: upstream(t).URL})
	if err != nil {
		t.Fatalf("remote.New: %v", err)
	}

	svc := recipeservice.NewService(recipeservice.Deps{
		Resolver: resolver.New(client, cache, nil),
		Links:    set.Links,
		Ratings:  set.Ratings,
		Fridge:   set.Fridge,
		Cache:    cache,
	})
	return svc, NewRouter(svc, authToken != "", authToken, sseHandler)
}

func do(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return resp.Error
}

func TestSaveListUnsave(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/users/1/saved", SaveRecipeRequest{Key: "a716429"})
	if w.Code != http.StatusCreated {
		t.Fatalf("save status = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/users/1/saved", nil)
	var list SavedListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Saved) != 1 || list.Saved[0].RecipeKey != "a716429" {
		t.Fatalf("saved = %+v", list.Saved)
	}

	w = do(t, router, http.MethodDelete, "/users/1/saved/a716429", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	w = do(t, router, http.MethodDelete, "/users/1/saved/a716429", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d", w.Code)
	}
}

func TestSaveDuplicate(t *testing.T) {
	_, router := testEnv(t, "")
	do(t, router, http.MethodPost, "/users/1/saved", SaveRecipeRequest{Key: "c4"})
	w := do(t, router, http.MethodPost, "/users/1/saved", SaveRecipeRequest{Key: "c4"})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
}

func TestSaveInvalidKey(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodPost, "/users/1/saved", SaveRecipeRequest{Key: "z9"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestBadUserID(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/users/bob/saved", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestFavouriteFilter(t *testing.T) {
	_, router := testEnv(t, "")
	do(t, router, http.MethodPost, "/users/2/saved", SaveRecipeRequest{Key: "a1"})
	do(t, router, http.MethodPost, "/users/2/saved", SaveRecipeRequest{Key: "a2"})

	fav := true
	w := do(t, router, http.MethodPut, "/users/2/saved/a2/favourite", FavouriteRequest{Favourite: &fav})
	if w.Code != http.StatusOK {
		t.Fatalf("favourite status = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/users/2/saved?favourite=true", nil)
	var list SavedListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list.Saved) != 1 || list.Saved[0].RecipeKey != "a2" {
		t.Fatalf("favourites = %+v", list.Saved)
	}

	w = do(t, router, http.MethodPut, "/users/2/saved/a3/favourite", FavouriteRequest{Favourite: &fav})
	if w.Code != http.StatusNotFound {
		t.Fatalf("unsaved favourite status = %d", w.Code)
	}
}

func TestRatingsEndpoints(t *testing.T) {
	_, router := testEnv(t, "")

	stars := 4.5
	w := do(t, router, http.MethodPut, "/users/3/ratings/a716429", RatingRequest{Stars: &stars})
	if w.Code != http.StatusOK {
		t.Fatalf("rate status = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/users/3/ratings/a716429", nil)
	var got struct {
		Stars float64 `json:"stars"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Stars != 4.5 {
		t.Fatalf("stars = %v", got.Stars)
	}

	bad := 4.2
	w = do(t, router, http.MethodPut, "/users/3/ratings/a716429", RatingRequest{Stars: &bad})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad rating status = %d", w.Code)
	}

	if w = do(t, router, http.MethodDelete, "/users/3/ratings/a716429", nil); w.Code != http.StatusNoContent {
		t.Fatalf("clear status = %d", w.Code)
	}
	if w = do(t, router, http.MethodGet, "/users/3/ratings/a716429", nil); w.Code != http.StatusNotFound {
		t.Fatalf("get cleared status = %d", w.Code)
	}
}

func TestFridgeEndpoints(t *testing.T) {
	_, router := testEnv(t, "")

	do(t, router, http.MethodPost, "/users/1/fridge", FridgeItemRequest{Item: "Olive Oil"})
	w := do(t, router, http.MethodPost, "/users/1/fridge", FridgeItemRequest{Item: "olive oil "})
	var fridge FridgeResponse
	_ = json.Unmarshal(w.Body.Bytes(), &fridge)
	if len(fridge.Items) != 1 || fridge.Items[0] != "olive oil" {
		t.Fatalf("items = %v", fridge.Items)
	}

	w = do(t, router, http.MethodDelete, "/users/1/fridge/olive%20oil", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("remove status = %d, body = %s", w.Code, w.Body.String())
	}
	w = do(t, router, http.MethodDelete, "/users/1/fridge/olive%20oil", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second remove status = %d", w.Code)
	}

	w = do(t, router, http.MethodPost, "/users/1/fridge", FridgeItemRequest{Item: "  "})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("blank item status = %d", w.Code)
	}
}

func TestGetExternalRecipe(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/recipes/a716429", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var got struct {
		Key       string            `json:"key"`
		Title     string            `json:"title"`
		Nutrition map[string]string `json:"nutrition"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Key != "a716429" || got.Title != "Pasta with Garlic" || got.Nutrition["protein"] != "20g" {
		t.Fatalf("recipe = %+v", got)
	}
}

func TestGetRecipe_ErrorMapping(t *testing.T) {
	_, router := testEnv(t, "")

	tests := []struct {
		target string
		status int
		msg    string
	}{
		{"/recipes/a401", http.StatusBadGateway, "recipe service credentials are invalid or expired"},
		{"/recipes/a402", http.StatusTooManyRequests, "recipe service quota exceeded, try again later"},
		{"/recipes/a5", http.StatusNotFound, "this external recipe could not be found"},
		{"/recipes/c5", http.StatusNotFound, "this recipe you created no longer exists"},
		{"/recipes/q5", http.StatusBadRequest, "recipe reference is not valid"},
	}
	for _, tt := range tests {
		w := do(t, router, http.MethodGet, tt.target, nil)
		if w.Code != tt.status {
			t.Errorf("%s: status = %d, want %d", tt.target, w.Code, tt.status)
			continue
		}
		if msg := errorMessage(t, w); msg != tt.msg {
			t.Errorf("%s: message = %q, want %q", tt.target, msg, tt.msg)
		}
	}
}

func TestCreateCustomRecipe(t *testing.T) {
	_, router := testEnv(t, "")

	body := map[string]any{
		"user_id": 7,
		"recipe": map[string]any{
			"title":        "Overnight oats",
			"servings":     1,
			"ingredients":  []map[string]any{{"name": "oats", "amount": 0.5, "unit": "cup"}},
			"instructions": []map[string]any{{"number": 1, "text": "Soak overnight."}},
		},
	}
	w := do(t, router, http.MethodPost, "/recipes", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/recipes/c1", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Overnight oats") {
		t.Fatalf("get custom = %d %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/users/7/saved", nil)
	if !strings.Contains(w.Body.String(), `"recipe_key":"c1"`) {
		t.Fatalf("custom recipe not saved for user: %s", w.Body.String())
	}
}

func TestInvalidJSON(t *testing.T) {
	_, router := testEnv(t, "")
	req := httptest.NewRequest(http.MethodPost, "/users/1/saved", strings.NewReader("{"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret")
	req := httptest.NewRequest(http.MethodGet, "/users/1/fridge", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret")
	w := do(t, router, http.MethodGet, "/users/1/fridge", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret")
	req := httptest.NewRequest(http.MethodGet, "/users/1/fridge", nil)
	req.Header.Set("Authorization", "Bearer nope")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestHealthAndMetricsSkipAuth(t *testing.T) {
	_, router := testEnv(t, "secret")
	for _, target := range []string{"/healthz", "/metrics"} {
		w := do(t, router, http.MethodGet, target, nil)
		if w.Code != http.StatusOK {
			t.Errorf("%s status = %d", target, w.Code)
		}
	}
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	sseHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		<-r.Context().Done()
	})
	_, router := testEnvWithSSE(t, "tok", sseHandler)

	w := do(t, router, http.MethodGet, "/events", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with valid token status = %d", w.Code)
	}
}
