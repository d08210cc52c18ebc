package response

import (
	"Marquee/internal/api/dto"
	"Marquee/internal/service"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, err error) dto.Response {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

	Error(c, err)

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestError_Classifies_Wrapped_Errors(t *testing.T) {
	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{fmt.Errorf("get presence: %w", service.ErrNotFound), service.NotFound, service.ErrNotFound.Error()},
		{fmt.Errorf("write: %w: %w", service.ErrStoreUnavailable, errors.New("dial tcp: refused")), service.ServiceUnavailable, service.ErrStoreUnavailable.Error()},
		{service.UnauthorizedError, Unauthorized, service.UnauthorizedError.Error()},
		{errors.New("secret internals"), InternalServerError, service.UnExpectedError.Error()},
	}
	for _, tc := range cases {
		t.Run(tc.msg, func(t *testing.T) {
			resp := render(t, tc.err)
			require.Equal(t, tc.code, resp.Code)
			require.Equal(t, tc.msg, resp.Message)
		})
	}
}
