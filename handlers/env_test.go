package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"rodroyale/auth"
	"rodroyale/cache"
	"rodroyale/config"
	"rodroyale/models"
	"rodroyale/storage"
	"rodroyale/store"
	"rodroyale/store/storetest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const api = "/api/v1"

type fakeImages struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeImages() *fakeImages {
	return &fakeImages{objects: map[string][]byte{}}
}

func (f *fakeImages) Put(_ context.Context, object string, r io.Reader, _ int64, _ string) (string, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[object] = body
	return "https://img.test/rod-royale/" + object, nil
}

func (f *fakeImages) Remove(_ context.Context, object string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[object]; !ok {
		return storage.ErrNotFound
	}
	delete(f.objects, object)
	return nil
}

func (f *fakeImages) PresignedURL(_ context.Context, object string, expiry time.Duration) (string, error) {
	return fmt.Sprintf("https://img.test/rod-royale/%s?X-Amz-Expires=%d", object, int(expiry.Seconds())), nil
}

func (f *fakeImages) has(object string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[object]
	return ok
}

func (f *fakeImages) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

type testEnv struct {
	t      *testing.T
	cfg    *config.Config
	store  *store.Store
	redis  *miniredis.Miniredis
	images *fakeImages
	router *gin.Engine
	now    time.Time
}

func newEnv(t *testing.T) *testEnv {
	return newEnvWith(t, func(*config.Config) {})
}

func newEnvWith(t *testing.T, tweak func(*config.Config)) *testEnv {
	t.Helper()

	cfg := &config.Config{
		APIPrefix:      api,
		ProjectName:    "Rod Royale Backend API",
		Environment:    "test",
		MaxUploadBytes: 1 << 20,
		CacheTTL:       time.Minute,
		AuthRateLimit:  1000,
		AuthRateBurst:  1000,
	}
	tweak(cfg)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	env := &testEnv{
		t:      t,
		cfg:    cfg,
		store:  storetest.New(t),
		redis:  mr,
		images: newFakeImages(),
		now:    time.Now().UTC().Truncate(time.Second),
	}
	tokens := auth.NewTokens("test-secret", time.Hour, 24*time.Hour, time.Hour)
	h := New(cfg, env.store, cache.New(rdb, cfg.CacheTTL), env.images, tokens).
		WithClock(func() time.Time { return env.now })
	env.router = h.Router(prometheus.NewRegistry())
	return env
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) multipart(path, token string, fields map[string]string, filename string, content []byte) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(e.t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(e.t, err)
		_, err = fw.Write(content)
		require.NoError(e.t, err)
	}
	require.NoError(e.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type session struct {
	ID           uint
	Token        string
	RefreshToken string
}

func (e *testEnv) register(username string) session {
	e.t.Helper()
	w := e.do(http.MethodPost, api+"/auth/register", "", map[string]any{
		"username": username,
		"email":    username + "@example.com",
		"password": "hunter2hunter2",
	})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[authResponse](e.t, w)
	return session{ID: resp.User.ID, Token: resp.Token.AccessToken, RefreshToken: resp.Token.RefreshToken}
}

func (e *testEnv) follow(who session, target uint) {
	e.t.Helper()
	w := e.do(http.MethodPost, fmt.Sprintf("%s/users/%d/follow", api, target), who.Token, nil)
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())
}

// postCatch goes through the API, so created_at is env.now.
func (e *testEnv) postCatch(who session, species string, weight float64, shared, addToMap bool) models.Catch {
	e.t.Helper()
	w := e.do(http.MethodPost, api+"/catches/", who.Token, map[string]any{
		"species":               species,
		"weight":                weight,
		"photo_url":             "https://img.example/fish.jpg",
		"location":              map[string]any{"lat": 45.0, "lng": -93.0},
		"shared_with_followers": shared,
		"add_to_map":            addToMap,
	})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Catch](e.t, w)
}

// seedCatch writes straight to the store to backdate created_at.
func (e *testEnv) seedCatch(owner uint, species string, weight float64, age time.Duration) models.Catch {
	e.t.Helper()
	c := models.Catch{
		UserID:    owner,
		Species:   species,
		Weight:    weight,
		PhotoURL:  "https://img.example/fish.jpg",
		Location:  models.Location{Lat: 45, Lng: -93},
		CreatedAt: e.now.Add(-age),
	}
	_, err := e.store.CreateCatch(context.Background(), &c, false)
	require.NoError(e.t, err)
	return c
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]any](t, w)["error"].(string)
}

func catchIDs(catches []models.Catch) []uint {
	ids := make([]uint, 0, len(catches))
	for _, c := range catches {
		ids = append(ids, c.ID)
	}
	return ids
}
