package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/edvlasov/blog-backend/internal/handlers"
	"github.com/edvlasov/blog-backend/internal/models"
	"github.com/edvlasov/blog-backend/internal/mykafka"
	"github.com/edvlasov/blog-backend/internal/token"
	"github.com/edvlasov/blog-backend/internal/validation"
)

func newTestApp(t *testing.T) (*echo.Echo, *gorm.DB, *token.Service) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Post{}))

	tokens := token.NewService([]byte("test_secret"), time.Hour)
	prod := mykafka.NewProducer(nil)

	e := echo.New()
	e.Validator = validation.New()

	Register(e, &Deps{
		UserHandler:   &handlers.UserHandler{DB: db, Tokens: tokens, Producer: prod},
		BlogHandler:   &handlers.BlogHandler{DB: db, Producer: prod},
		SearchHandler: &handlers.SearchHandler{},
		Tokens:        tokens,
	})

	return e, db, tokens
}

func doJSON(e *echo.Echo, method, path, authorization string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSignupThenCreatePost(t *testing.T) {
	e, db, _ := newTestApp(t)

	rec := doJSON(e, http.MethodPost, "/api/v1/user/signup", "", map[string]string{
		"name":     "Test User",
		"username": "test_user",
		"password": "password",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var signup map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &signup))
	require.NotEmpty(t, signup["token"])

	rec = doJSON(e, http.MethodPost, "/api/v1/blog", signup["token"], map[string]string{
		"title":   "hello",
		"content": "first post",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var user models.User
	require.NoError(t, db.Where("username = ?", "test_user").First(&user).Error)

	var post models.Post
	require.NoError(t, db.Where("author_id = ?", user.ID).First(&post).Error)
	require.Equal(t, "hello", post.Title)

	// the new post shows up in the public list with the author's name
	rec = doJSON(e, http.MethodGet, "/api/v1/blog", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		BlogPosts []struct {
			Title  string `json:"title"`
			Author struct {
				Name string `json:"name"`
			} `json:"author"`
		} `json:"blogPosts"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, 1, list.Total)
	require.Equal(t, "Test User", list.BlogPosts[0].Author.Name)
}

func TestProtectedRouteWithoutToken(t *testing.T) {
	e, _, _ := newTestApp(t)

	rec := doJSON(e, http.MethodPost, "/api/v1/blog", "", map[string]string{
		"title":   "hello",
		"content": "first post",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "missing_token", resp["code"])
}

func TestProtectedRouteWithForeignToken(t *testing.T) {
	e, _, _ := newTestApp(t)

	foreign := token.NewService([]byte("other_secret"), time.Hour)
	signed, err := foreign.Issue(1)
	require.NoError(t, err)

	rec := doJSON(e, http.MethodPost, "/api/v1/blog", signed, map[string]string{
		"title":   "hello",
		"content": "first post",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "invalid_token", resp["code"])
}

func TestSignupInvalidInputStatus(t *testing.T) {
	e, _, _ := newTestApp(t)

	rec := doJSON(e, http.MethodPost, "/api/v1/user/signup", "", map[string]string{
		"name":     "Test User",
		"username": "test_user",
	})
	require.Equal(t, http.StatusLengthRequired, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "invalid_input", resp["code"])
}

func TestGetUnknownPostStatus(t *testing.T) {
	e, _, _ := newTestApp(t)

	rec := doJSON(e, http.MethodGet, "/api/v1/blog/999", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchWithoutBackend(t *testing.T) {
	e, _, _ := newTestApp(t)

	rec := doJSON(e, http.MethodGet, "/api/v1/blog/search?q=hello", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/v1/blog/search", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
