package webserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminCidrStatus(t *testing.T, allowCidr, source string) int {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = source + ":40000"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := adminAllowCidr(allowCidr)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return rec.Code
}

func TestAdminAllowCidr(t *testing.T) {
	allow := "127.0.0.0/8, 10.1.0.0/16"

	assert.Equal(t, http.StatusOK, adminCidrStatus(t, allow, "127.0.0.1"))
	assert.Equal(t, http.StatusOK, adminCidrStatus(t, allow, "10.1.2.3"))
	assert.Equal(t, http.StatusForbidden, adminCidrStatus(t, allow, "10.2.0.1"))
	assert.Equal(t, http.StatusForbidden, adminCidrStatus(t, allow, "192.168.1.1"))
}

func TestAdminAllowCidrEmptyAllowsAll(t *testing.T) {
	assert.Equal(t, http.StatusOK, adminCidrStatus(t, "", "192.168.1.1"))
}

func TestAdminAllowCidrSkipsInvalidEntries(t *testing.T) {
	allow := "not-a-cidr, 127.0.0.0/8"

	assert.Equal(t, http.StatusOK, adminCidrStatus(t, allow, "127.0.0.1"))
	assert.Equal(t, http.StatusForbidden, adminCidrStatus(t, allow, "8.8.8.8"))
}
