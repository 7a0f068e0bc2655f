package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func paginationContext(query string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestGetPaginationParams(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		params := GetPaginationParams(paginationContext(""))
		assert.Equal(t, 1, params.Page)
		assert.Equal(t, 20, params.PageSize)
		assert.Equal(t, 0, params.Offset)
	})

	t.Run("explicit page and size", func(t *testing.T) {
		params := GetPaginationParams(paginationContext("page=3&size=10"))
		assert.Equal(t, 3, params.Page)
		assert.Equal(t, 10, params.PageSize)
		assert.Equal(t, 20, params.Offset)
	})

	t.Run("oversized page size is clamped to default", func(t *testing.T) {
		params := GetPaginationParams(paginationContext("size=500"))
		assert.Equal(t, 20, params.PageSize)
	})

	t.Run("invalid values fall back", func(t *testing.T) {
		params := GetPaginationParams(paginationContext("page=-1&size=abc"))
		assert.Equal(t, 1, params.Page)
		assert.Equal(t, 20, params.PageSize)
	})
}
