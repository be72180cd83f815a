package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pastel24h/internal/apierror"
	"pastel24h/internal/dto"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(method, body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, "/", nil)
	}
	c.Request = req
	return c, w
}

func TestRespondError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{"not found", apierror.NotFound("turno não encontrado"), http.StatusNotFound, "turno não encontrado"},
		{"validation", apierror.Validation("countedCash", "contagem obrigatória"), http.StatusBadRequest, "contagem obrigatória"},
		{"forbidden field", apierror.ForbiddenField("entryQty", "travado"), http.StatusForbidden, "travado"},
		{"unprocessable", apierror.Unprocessable("não confere", map[string]any{"difference": "0.50"}), http.StatusUnprocessableEntity, "não confere"},
		{"internal", errors.New("pq: connection refused"), http.StatusInternalServerError, "Erro interno do servidor"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, w := testContext(http.MethodGet, "")
			respondError(c, tc.err)
			assert.Equal(t, tc.status, w.Code)

			var body apierror.APIError
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.detail, body.Detail)
			assert.NotContains(t, w.Body.String(), "connection refused")
		})
	}

	c, w := testContext(http.MethodGet, "")
	respondError(c, apierror.ForbiddenField("entryQty", "travado"))
	assert.Contains(t, w.Body.String(), `"field":"entryQty"`)
}

func TestBindAndValidate_NestedFieldNames(t *testing.T) {
	c, w := testContext(http.MethodPost, `{"records":[{"productId":"x","entryQty":-1}],"countedCash":-5}`)
	var req dto.CloseShiftRequest
	assert.False(t, bindAndValidate(c, &req))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body apierror.ValidationError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "uuid", body.Fields["records[0].productId"])
	assert.Equal(t, "min", body.Fields["records[0].entryQty"])
	assert.Equal(t, "min", body.Fields["countedCash"])
}

func TestBindAndValidate_MalformedJSON(t *testing.T) {
	c, w := testContext(http.MethodPost, `{"records":`)
	var req dto.CloseShiftRequest
	assert.False(t, bindAndValidate(c, &req))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParamUUID(t *testing.T) {
	c, w := testContext(http.MethodGet, "")
	c.Params = gin.Params{{Key: "id", Value: "123"}}
	_, ok := paramUUID(c, "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, _ = testContext(http.MethodGet, "")
	c.Params = gin.Params{{Key: "id", Value: "6f1c2d1e-8a43-4f7e-9a55-2b7b3c1d0e9f"}}
	id, ok := paramUUID(c, "id")
	assert.True(t, ok)
	assert.Equal(t, "6f1c2d1e-8a43-4f7e-9a55-2b7b3c1d0e9f", id.String())
}

func TestFieldPath(t *testing.T) {
	assert.Equal(t, "records[0].entryQty", fieldPath("CloseShiftRequest.records[0].entryQty"))
	assert.Equal(t, "plain", fieldPath("plain"))
}
