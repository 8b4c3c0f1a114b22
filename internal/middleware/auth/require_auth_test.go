package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/edvlasov/blog-backend/internal/apperror"
	"github.com/edvlasov/blog-backend/internal/token"
)

func newGuardedContext(t *testing.T, authorization string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/profile", nil)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func TestRequireAuthMissingHeader(t *testing.T) {
	tokens := token.NewService([]byte("test_secret"), time.Hour)
	c, _ := newGuardedContext(t, "")

	err := RequireAuth(tokens)(okHandler)(c)

	var ae *apperror.AppError
	require.True(t, errors.As(err, &ae))
	require.Equal(t, http.StatusUnauthorized, ae.StatusCode())
}

func TestRequireAuthWrongSecret(t *testing.T) {
	tokens := token.NewService([]byte("test_secret"), time.Hour)
	foreign := token.NewService([]byte("other_secret"), time.Hour)

	signed, err := foreign.Issue(7)
	require.NoError(t, err)

	c, _ := newGuardedContext(t, signed)
	err = RequireAuth(tokens)(okHandler)(c)

	var ae *apperror.AppError
	require.True(t, errors.As(err, &ae))
	require.Equal(t, http.StatusForbidden, ae.StatusCode())
}

func TestRequireAuthBindsUserID(t *testing.T) {
	tokens := token.NewService([]byte("test_secret"), time.Hour)

	signed, err := tokens.Issue(7)
	require.NoError(t, err)

	c, rec := newGuardedContext(t, signed)
	require.NoError(t, RequireAuth(tokens)(okHandler)(c))
	require.Equal(t, http.StatusOK, rec.Code)

	id, ok := UserID(c)
	require.True(t, ok)
	require.Equal(t, uint(7), id)
}

func TestRequireAuthBearerPrefix(t *testing.T) {
	tokens := token.NewService([]byte("test_secret"), time.Hour)

	signed, err := tokens.Issue(7)
	require.NoError(t, err)

	c, rec := newGuardedContext(t, "Bearer "+signed)
	require.NoError(t, RequireAuth(tokens)(okHandler)(c))
	require.Equal(t, http.StatusOK, rec.Code)
}
