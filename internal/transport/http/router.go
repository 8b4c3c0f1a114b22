package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/edvlasov/blog-backend/internal/apperror"
	"github.com/edvlasov/blog-backend/internal/handlers"
	"github.com/edvlasov/blog-backend/internal/middleware/auth"
	"github.com/edvlasov/blog-backend/internal/token"
)

type Deps struct {
	UserHandler   *handlers.UserHandler
	BlogHandler   *handlers.BlogHandler
	SearchHandler *handlers.SearchHandler
	Tokens        *token.Service
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = ErrorHandler()

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	guard := auth.RequireAuth(d.Tokens)

	v1 := e.Group("/api/v1")

	user := v1.Group("/user")
	user.POST("/signup", d.UserHandler.Signup)
	user.POST("/signin", d.UserHandler.Signin)
	user.GET("/profile", d.UserHandler.Profile, guard)

	blog := v1.Group("/blog")
	blog.GET("", d.BlogHandler.List)
	// registered before /:id so the literal path is not shadowed
	blog.GET("/search", d.SearchHandler.Search)
	blog.GET("/:id", d.BlogHandler.Get)
	blog.POST("", d.BlogHandler.Create, guard)
	blog.PUT("/:id", d.BlogHandler.Update, guard)
	blog.DELETE("/:id", d.BlogHandler.Delete, guard)
}

// ErrorHandler renders the application error taxonomy as {message, code} and
// leaves echo's own errors with their status.
func ErrorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var ae *apperror.AppError
		if errors.As(err, &ae) {
			_ = c.JSON(ae.StatusCode(), ae.ToResponse())
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			_ = c.JSON(he.Code, echo.Map{"message": fmt.Sprint(he.Message)})
			return
		}

		_ = c.JSON(http.StatusInternalServerError, echo.Map{
			"message": "something went wrong",
			"code":    "unknown",
		})
	}
}
