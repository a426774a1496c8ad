package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-portal/internal/middleware"
	"property-portal/internal/model"
	"property-portal/internal/repository"
	"property-portal/internal/service"
)

const testSecret = "test-secret"

type memFiles struct{ data map[string]string }

func (m *memFiles) Put(_ context.Context, name, _ string, r io.Reader) (string, error) {
	b, _ := io.ReadAll(r)
	m.data[name] = string(b)
	return "http://localhost/api/media/" + name, nil
}

type testServer struct {
	router *gin.Engine
	mem    *repository.Memory
	files  *memFiles
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mem := repository.NewMemory()
	files := &memFiles{data: map[string]string{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	x, y := "X", "Y"
	for _, u := range []*model.User{
		{ID: "agent-a", AuthID: "auth-agent-a", Role: model.RoleAgent, AgencyID: &x, Active: true},
		{ID: "agent-b", AuthID: "auth-agent-b", Role: model.RoleAgent, AgencyID: &x, Active: true},
		{ID: "admin-x", AuthID: "auth-admin-x", Role: model.RoleAgencyAdmin, AgencyID: &x, Active: true},
		{ID: "admin-y", AuthID: "auth-admin-y", Role: model.RoleAgencyAdmin, AgencyID: &y, Active: true},
		{ID: "root", AuthID: "auth-root", Role: model.RoleSuperAdmin, Active: true},
		{ID: "gone", AuthID: "auth-gone", Role: model.RoleAgent, AgencyID: &x, Active: false},
	} {
		require.NoError(t, mem.Users.Create(context.Background(), u))
	}

	r := NewRouter(Deps{
		Listings:       service.NewListingService(mem.Listings, mem.Listings, files, logger),
		Metrics:        service.NewMetricsService(mem.Listings, mem.Users, mem.Agencies),
		Auth:           middleware.NewAuth(testSecret, "HS256", mem.Users),
		MaxUploadBytes: 1 << 10,
		Logger:         logger,
	})
	return &testServer{router: r, mem: mem, files: files}
}

func token(t *testing.T, sub string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func (s *testServer) do(t *testing.T, method, path, sub string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if sub != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, sub))
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func listingBody(title string) map[string]any {
	return map[string]any{
		"title":           title,
		"description":     "Close to the park",
		"type":            "house",
		"transactionType": "rent",
		"price":           1500,
		"bedrooms":        3,
		"bathrooms":       2,
		"area":            120,
		"address":         "Calle 10 #5",
		"city":            "Medellín",
		"status":          "APPROVED",
	}
}

func (s *testServer) create(t *testing.T, sub, title string) model.Listing {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/listings", sub, listingBody(title))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[model.Listing](t, w)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/listings", "", listingBody("No token"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/me", "auth-unknown", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/me", "auth-gone", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/listings", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "a bad token on a public route is still rejected")

	wrongAlg := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"sub": "auth-agent-a"})
	signed, err := wrongAlg.SignedString([]byte(testSecret))
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	w = s.do(t, http.MethodGet, "/api/me", "auth-agent-a", nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[map[string]any](t, w)
	assert.Equal(t, "agent-a", me["id"])
	assert.NotContains(t, me, "authId")
}

func TestCookieToken(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AccessTokenCookie, Value: token(t, "auth-root")})
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReviewFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	l := s.create(t, "auth-agent-a", "Garden house")
	assert.Equal(t, model.StatusPending, l.Status)
	assert.Equal(t, model.TypeHouse, l.Type)

	w := s.do(t, http.MethodGet, "/api/listings/"+l.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/listings/"+l.ID+"/approve", "auth-admin-y", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/api/listings/"+l.ID+"/reject", "auth-admin-x", map[string]string{"reason": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	fields := decode[map[string]any](t, w)["fields"].(map[string]any)
	assert.Contains(t, fields, "reason")

	w = s.do(t, http.MethodPost, "/api/listings/"+l.ID+"/reject", "auth-admin-x", map[string]string{"reason": "blurry photos"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "blurry photos", *decode[model.Listing](t, w).RejectionReason)

	w = s.do(t, http.MethodPost, "/api/listings/"+l.ID+"/approve", "auth-admin-x", nil)
	require.Equal(t, http.StatusOK, w.Code, "a rejected listing can be approved directly")

	w = s.do(t, http.MethodPost, "/api/listings/"+l.ID+"/reject", "auth-admin-x", map[string]string{"reason": "changed my mind"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodGet, "/api/listings/"+l.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[model.Listing](t, w)
	assert.Equal(t, model.StatusApproved, got.Status)
	assert.Nil(t, got.RejectionReason)
}

func TestResubmitOverHTTP(t *testing.T) {
	s := newTestServer(t)
	l := s.create(t, "auth-agent-a", "Loft")
	w := s.do(t, http.MethodPost, "/api/listings/"+l.ID+"/reject", "auth-admin-x", map[string]string{"reason": "price missing"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/listings/"+l.ID+"/resubmit", "auth-agent-b", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	body := listingBody("Loft with price")
	w = s.do(t, http.MethodPost, "/api/listings/"+l.ID+"/resubmit", "auth-agent-a", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[model.Listing](t, w)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Equal(t, "Loft with price", got.Title)

	w = s.do(t, http.MethodPost, "/api/listings/"+l.ID+"/resubmit", "auth-agent-a", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestListOverHTTP(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 3; i++ {
		l := s.create(t, "auth-agent-a", "Studio")
		w := s.do(t, http.MethodPost, "/api/listings/"+l.ID+"/approve", "auth-admin-x", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	s.create(t, "auth-agent-a", "Pending studio")

	w := s.do(t, http.MethodGet, "/api/listings?limit=2&offset=0&sortBy=price&sortOrder=asc", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	feed := decode[service.Feed](t, w)
	assert.Equal(t, 3, feed.TotalCount)
	assert.True(t, feed.HasMore)
	assert.Len(t, feed.Listings, 2)
	assert.Equal(t, 2, feed.Pagination.TotalPages)

	w = s.do(t, http.MethodGet, "/api/listings", "auth-agent-a", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4, decode[service.Feed](t, w).TotalCount)

	w = s.do(t, http.MethodGet, "/api/listings?limit=0&minPrice=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	fields := decode[map[string]any](t, w)["fields"].(map[string]any)
	assert.Contains(t, fields, "limit")
	assert.Contains(t, fields, "minPrice")
}

func TestCreateValidation(t *testing.T) {
	s := newTestServer(t)
	body := listingBody("ok")
	body["price"] = -1
	w := s.do(t, http.MethodPost, "/api/listings", "auth-agent-a", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	fields := decode[map[string]any](t, w)["fields"].(map[string]any)
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "price")

	w = s.do(t, http.MethodPost, "/api/listings", "auth-admin-x", listingBody("Admin house"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/listings", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+token(t, "auth-agent-a"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func upload(t *testing.T, s *testServer, listingID, sub, kind, name, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("kind", kind))
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/listings/"+listingID+"/media", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token(t, sub))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestMediaUpload(t *testing.T) {
	s := newTestServer(t)
	l := s.create(t, "auth-agent-a", "Photo house")

	w := upload(t, s, l.ID, "auth-agent-a", "document", "deed.pdf", "%PDF")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	got := decode[model.Listing](t, w)
	require.Len(t, got.Documents, 1)
	assert.Equal(t, "%PDF", s.files.data["deed.pdf"])

	w = upload(t, s, l.ID, "auth-agent-a", "video", "clip.mp4", "x")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = upload(t, s, l.ID, "auth-agent-a", "image", "huge.jpg", strings.Repeat("x", 4<<10))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = upload(t, s, l.ID, "auth-admin-x", "image", "a.jpg", "x")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/media/abc", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	a := s.create(t, "auth-agent-a", "One")
	s.create(t, "auth-agent-b", "Two")
	w := s.do(t, http.MethodPost, "/api/listings/"+a.ID+"/approve", "auth-admin-x", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/metrics", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/metrics", "auth-admin-x", nil)
	require.Equal(t, http.StatusOK, w.Code)
	d := decode[service.Dashboard](t, w)
	assert.Equal(t, 2, d.Total)
	assert.Equal(t, 1, d.Approved)
	assert.Equal(t, 50, d.ApprovalRate)
	require.NotNil(t, d.Agents)
	assert.Equal(t, 3, *d.Agents)

	w = s.do(t, http.MethodGet, "/api/metrics", "auth-agent-b", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[service.Dashboard](t, w).Total)
}
