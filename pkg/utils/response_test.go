package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davicafu/hexaquery/pkg/query"
)

type errorBody struct {
	Error ErrorResponse `json:"error"`
}

func call(t *testing.T, err error) (*httptest.ResponseRecorder, errorBody) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	SendQueryError(c, err)

	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestSendQueryError_ArgumentError(t *testing.T) {
	_, err := query.ParseFor[struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}]("pageSize=0", "name")
	require.Error(t, err)

	w, body := call(t, err)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, query.ErrInvalidPageSize.Error(), body.Error.Message)
	assert.Equal(t, query.KeyPageSize, body.Error.Key)
	assert.Equal(t, "0", body.Error.Value)
}

func TestSendQueryError_OtherErrors(t *testing.T) {
	w, body := call(t, errors.New("db down"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "db down", body.Error.Message)
	assert.Empty(t, body.Error.Key)
}
