package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	httpserver "hbnb_api/internal/adapters/http_server"
	"hbnb_api/internal/app"
	"hbnb_api/internal/domain"
	"hbnb_api/internal/storage/file"
	"hbnb_api/internal/store"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	goleak.VerifyTestMain(m)
}

// ---- helpers ----

type api struct {
	t     *testing.T
	h     http.Handler
	store *store.Store
	path  string
}

func newAPI(t *testing.T, opts httpserver.Options) *api {
	t.Helper()
	path := filepath.Join(t.TempDir(), "file.json")
	a := newAPIWithEngine(t, file.New(path), opts)
	a.path = path
	return a
}

func newAPIWithEngine(t *testing.T, eng domain.Engine, opts httpserver.Options) *api {
	t.Helper()
	s := store.New(eng)
	t.Cleanup(func() { _ = s.Close() })

	srv := httpserver.New(opts)
	srv.MountHandlers(&httpserver.Handlers{Q: app.NewQueryService(s), C: app.NewCommandService(s)})
	return &api{t: t, h: srv.Mux(), store: s}
}

// brokenEngine loads nothing and fails every save with err.
type brokenEngine struct{ err error }

func (b brokenEngine) Load(context.Context) (*domain.Snapshot, error) { return &domain.Snapshot{}, nil }
func (b brokenEngine) Store(context.Context, *domain.Snapshot) error  { return b.err }
func (b brokenEngine) Close() error                                   { return nil }

func (a *api) do(method, path, body string, hdr ...string) *httptest.ResponseRecorder {
	a.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rr := httptest.NewRecorder()
	a.h.ServeHTTP(rr, req)
	return rr
}

// mustCreate posts body and returns the new object's id.
func (a *api) mustCreate(path, body string) string {
	a.t.Helper()
	rr := a.do(http.MethodPost, path, body)
	require.Equal(a.t, http.StatusCreated, rr.Code, rr.Body.String())
	var obj map[string]any
	require.NoError(a.t, json.Unmarshal(rr.Body.Bytes(), &obj))
	return obj["id"].(string)
}

func decodeObj(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var obj map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &obj), rr.Body.String())
	return obj
}

func decodeList(t *testing.T, rr *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var out []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func errorMsg(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeObj(t, rr)["error"].(string)
}

// ---- tests ----

func TestStatusAndUnknownRoute(t *testing.T) {
	a := newAPI(t, httpserver.Options{})
	rr := a.do(http.MethodGet, "/api/v1/status", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"OK"}`, rr.Body.String())

	rr = a.do(http.MethodGet, "/api/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestStateCRUD(t *testing.T) {
	a := newAPI(t, httpserver.Options{Timeout: 5 * time.Second})

	id := a.mustCreate("/api/v1/states", `{"name":"California"}`)

	rr := a.do(http.MethodGet, "/api/v1/states/"+id, "")
	require.Equal(t, http.StatusOK, rr.Code)
	obj := decodeObj(t, rr)
	assert.Equal(t, "California", obj["name"])
	assert.Equal(t, "State", obj["__class__"])

	// PUT ignores id and timestamps
	rr = a.do(http.MethodPut, "/api/v1/states/"+id, `{"name":"CA","id":"other","created_at":"2000-01-01T00:00:00Z"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	obj = decodeObj(t, rr)
	assert.Equal(t, id, obj["id"])
	assert.Equal(t, "CA", obj["name"])
	assert.NotContains(t, obj["created_at"], "2000")

	rr = a.do(http.MethodGet, "/api/v1/states", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeList(t, rr), 1)

	rr = a.do(http.MethodDelete, "/api/v1/states/"+id, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{}`, rr.Body.String())

	rr = a.do(http.MethodGet, "/api/v1/states/"+id, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Empty(t, rr.Body.String())
	rr = a.do(http.MethodDelete, "/api/v1/states/"+id, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreate_BodyValidation(t *testing.T) {
	a := newAPI(t, httpserver.Options{})
	cases := []struct {
		path, body, want string
	}{
		{"/api/v1/states", `not json`, "Not a JSON"},
		{"/api/v1/states", `"str"`, "Not a JSON"},
		{"/api/v1/states", `{}`, "Missing name"},
		{"/api/v1/amenities", `{"nom":"x"}`, "Missing name"},
		{"/api/v1/users", `{"password":"x"}`, "Missing email"},
		{"/api/v1/users", `{"email":"a@b.c"}`, "Missing password"},
	}
	for _, tc := range cases {
		rr := a.do(http.MethodPost, tc.path, tc.body)
		require.Equal(t, http.StatusBadRequest, rr.Code, tc.body)
		assert.Equal(t, tc.want, errorMsg(t, rr), tc.body)
	}
}

func TestUsers_PasswordNeverRendered(t *testing.T) {
	a := newAPI(t, httpserver.Options{})
	id := a.mustCreate("/api/v1/users", `{"email":"a@b.c","password":"secret","first_name":"Ada"}`)

	for _, path := range []string{"/api/v1/users", "/api/v1/users/" + id} {
		rr := a.do(http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.NotContains(t, rr.Body.String(), "password")
	}

	rr := a.do(http.MethodPost, "/api/v1/users", `{"email":"a@b.c","password":"other"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestPlaceCreation_ErrorOrdering(t *testing.T) {
	a := newAPI(t, httpserver.Options{})
	st := a.mustCreate("/api/v1/states", `{"name":"CA"}`)
	city := a.mustCreate("/api/v1/states/"+st+"/cities", `{"name":"SF"}`)
	user := a.mustCreate("/api/v1/users", `{"email":"a@b.c","password":"x"}`)
	places := "/api/v1/cities/" + city + "/places"

	rr := a.do(http.MethodPost, "/api/v1/cities/missing/places", `{"user_id":"`+user+`","name":"x"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = a.do(http.MethodPost, places, `{"name":"Loft"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Missing user_id", errorMsg(t, rr))

	rr = a.do(http.MethodPost, places, `{"user_id":"ghost"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = a.do(http.MethodPost, places, `{"user_id":"`+user+`"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Missing name", errorMsg(t, rr))

	id := a.mustCreate(places, `{"user_id":"`+user+`","name":"Loft","number_rooms":3}`)
	rr = a.do(http.MethodGet, places, "")
	require.Equal(t, http.StatusOK, rr.Code)
	list := decodeList(t, rr)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0]["id"])
	assert.EqualValues(t, 3, list[0]["number_rooms"])
}

func TestStateCascade(t *testing.T) {
	a := newAPI(t, httpserver.Options{})
	st := a.mustCreate("/api/v1/states", `{"name":"CA"}`)
	city := a.mustCreate("/api/v1/states/"+st+"/cities", `{"name":"SF"}`)
	user := a.mustCreate("/api/v1/users", `{"email":"a@b.c","password":"x"}`)
	place := a.mustCreate("/api/v1/cities/"+city+"/places", `{"user_id":"`+user+`","name":"Loft"}`)
	review := a.mustCreate("/api/v1/places/"+place+"/reviews", `{"user_id":"`+user+`","text":"nice"}`)

	require.Equal(t, http.StatusOK, a.do(http.MethodDelete, "/api/v1/states/"+st, "").Code)

	for _, path := range []string{"/api/v1/cities/" + city, "/api/v1/places/" + place, "/api/v1/reviews/" + review} {
		assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, path, "").Code, path)
	}
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/v1/users/"+user, "").Code)

	// the deletion reached the durable file
	raw, err := os.ReadFile(a.path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), city)
}

func TestPlaceAmenityLinks(t *testing.T) {
	a := newAPI(t, httpserver.Options{})
	st := a.mustCreate("/api/v1/states", `{"name":"CA"}`)
	city := a.mustCreate("/api/v1/states/"+st+"/cities", `{"name":"SF"}`)
	user := a.mustCreate("/api/v1/users", `{"email":"a@b.c","password":"x"}`)
	place := a.mustCreate("/api/v1/cities/"+city+"/places", `{"user_id":"`+user+`","name":"Loft"}`)
	wifi := a.mustCreate("/api/v1/amenities", `{"name":"Wifi"}`)
	link := "/api/v1/places/" + place + "/amenities/" + wifi

	rr := a.do(http.MethodPost, link, "")
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "Wifi", decodeObj(t, rr)["name"])
	rr = a.do(http.MethodPost, link, "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = a.do(http.MethodGet, "/api/v1/places/"+place+"/amenities", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeList(t, rr), 1)
	rr = a.do(http.MethodGet, "/api/v1/amenities/"+wifi+"/places", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeList(t, rr), 1)
	rr = a.do(http.MethodGet, "/api/v1/users/"+user+"/places", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeList(t, rr), 1)

	assert.Equal(t, http.StatusNotFound, a.do(http.MethodPost, "/api/v1/places/"+place+"/amenities/nope", "").Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodPost, "/api/v1/places/nope/amenities/"+wifi, "").Code)

	require.Equal(t, http.StatusOK, a.do(http.MethodDelete, link, "").Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodDelete, link, "").Code)
	// unlinking keeps the amenity
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/v1/amenities/"+wifi, "").Code)
}

func TestPlacesSearch(t *testing.T) {
	a := newAPI(t, httpserver.Options{})
	ca := a.mustCreate("/api/v1/states", `{"name":"CA"}`)
	ny := a.mustCreate("/api/v1/states", `{"name":"NY"}`)
	sf := a.mustCreate("/api/v1/states/"+ca+"/cities", `{"name":"SF"}`)
	nyc := a.mustCreate("/api/v1/states/"+ny+"/cities", `{"name":"NYC"}`)
	user := a.mustCreate("/api/v1/users", `{"email":"a@b.c","password":"x"}`)
	owner := `{"user_id":"` + user + `","name":"p"}`
	p1 := a.mustCreate("/api/v1/cities/"+sf+"/places", owner)
	a.mustCreate("/api/v1/cities/"+nyc+"/places", owner)
	pool := a.mustCreate("/api/v1/amenities", `{"name":"Pool"}`)
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/v1/places/"+p1+"/amenities/"+pool, "").Code)

	for _, body := range []string{`{}`, ``, `null`} {
		rr := a.do(http.MethodPost, "/api/v1/places_search", body)
		require.Equal(t, http.StatusOK, rr.Code, "body %q", body)
		assert.Len(t, decodeList(t, rr), 2, "body %q", body)
	}

	rr := a.do(http.MethodPost, "/api/v1/places_search", `{"states":[],"cities":[]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeList(t, rr), 2)

	rr = a.do(http.MethodPost, "/api/v1/places_search", `{"states":["`+ca+`"]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	got := decodeList(t, rr)
	require.Len(t, got, 1)
	assert.Equal(t, p1, got[0]["id"])

	rr = a.do(http.MethodPost, "/api/v1/places_search", `{"amenities":["`+pool+`"]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeList(t, rr), 1)

	rr = a.do(http.MethodPost, "/api/v1/places_search", `oops`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Not a JSON", errorMsg(t, rr))
}

func TestSaveFailure_Is500AndRolledBack(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"engine error", errors.New("disk full")},
		{"deadline", context.DeadlineExceeded},
		{"canceled", context.Canceled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := newAPIWithEngine(t, brokenEngine{err: tc.err}, httpserver.Options{})

			rr := a.do(http.MethodPost, "/api/v1/states", `{"name":"CA"}`)
			require.Equal(t, http.StatusInternalServerError, rr.Code)
			assert.Equal(t, http.StatusText(http.StatusInternalServerError), errorMsg(t, rr))

			rr = a.do(http.MethodGet, "/api/v1/states", "")
			require.Equal(t, http.StatusOK, rr.Code)
			assert.Empty(t, decodeList(t, rr))
		})
	}
}

func TestStats(t *testing.T) {
	a := newAPI(t, httpserver.Options{})
	a.mustCreate("/api/v1/states", `{"name":"CA"}`)
	a.mustCreate("/api/v1/amenities", `{"name":"Wifi"}`)

	rr := a.do(http.MethodGet, "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"amenities":1,"cities":0,"places":0,"reviews":0,"states":1,"users":0}`, rr.Body.String())
}

func TestETag_NotModified(t *testing.T) {
	a := newAPI(t, httpserver.Options{})
	id := a.mustCreate("/api/v1/amenities", `{"name":"Wifi"}`)

	rr := a.do(http.MethodGet, "/api/v1/amenities/"+id, "")
	require.Equal(t, http.StatusOK, rr.Code)
	etag := rr.Header().Get("ETag")
	require.NotEmpty(t, etag)

	rr = a.do(http.MethodGet, "/api/v1/amenities/"+id, "", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, rr.Code)
	assert.Equal(t, etag, rr.Header().Get("ETag"))
}

func TestBodyTooLarge(t *testing.T) {
	a := newAPI(t, httpserver.Options{})
	big := `{"name":"` + strings.Repeat("x", 2<<20) + `"}`
	rr := a.do(http.MethodPost, "/api/v1/states", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestRateLimit(t *testing.T) {
	a := newAPI(t, httpserver.Options{RateLimitRPS: 0.001, RateBurst: 1})
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/v1/status", "").Code)
	rr := a.do(http.MethodGet, "/api/v1/status", "")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))
}
