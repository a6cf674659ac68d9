package helpers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func TestGetPagination(t *testing.T) {
	tests := []struct {
		query   string
		want    Pagination
		wantErr bool
	}{
		{"/", Pagination{Page: 1, Limit: 10}, false},
		{"/?page=3&limit=20", Pagination{Page: 3, Limit: 20}, false},
		{"/?limit=1000", Pagination{Page: 1, Limit: 100}, false},
		{"/?page=0", Pagination{}, true},
		{"/?page=abc", Pagination{}, true},
		{"/?limit=-1", Pagination{}, true},
	}

	for _, tt := range tests {
		c, _ := testContext(tt.query)
		got, err := GetPagination(c)
		if tt.wantErr {
			assert.Error(t, err, tt.query)
			continue
		}
		require.NoError(t, err, tt.query)
		assert.Equal(t, tt.want, got, tt.query)
	}

	p := Pagination{Page: 3, Limit: 20}
	assert.Equal(t, 40, p.Offset())
	assert.Equal(t, int64(3), p.TotalPages(41))
}

func TestParseID(t *testing.T) {
	c, _ := testContext("/")
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	id, err := ParseID(c, "id")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	for _, v := range []string{"0", "-1", "abc", ""} {
		c.Params = gin.Params{{Key: "id", Value: v}}
		_, err := ParseID(c, "id")
		assert.Error(t, err, v)
	}
}

func TestRespondWithValidation(t *testing.T) {
	c, w := testContext("/")
	RespondWithValidation(c, map[string]string{"cvv": "CVV is required."})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "CVV is required.", body.Fields["cvv"])
}

func TestRespondWithBindingErrorMalformed(t *testing.T) {
	c, w := testContext("/")
	RespondWithBindingError(c, errors.New("unexpected EOF"))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), invalidInput)
}

func TestRespondRetryLater(t *testing.T) {
	c, w := testContext("/")
	RespondRetryLater(c, 5, "Please try again.")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "5", w.Header().Get("Retry-After"))
}
