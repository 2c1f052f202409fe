package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	producterrors "github.com/abgdnv/gocatalog/internal/product/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ProductValidator_Validate(t *testing.T) {
	v := NewProductValidator(testLogger())
	testCases := []struct {
		name        string
		mode        ValidationMode
		body        string
		expectedMsg string // empty means valid
	}{
		{name: "valid create", mode: ModeCreate, body: `{"name":"Mug","description":"Ceramic","price":10,"category":"kitchen"}`},
		{name: "valid create with zero price and stock flag", mode: ModeCreate, body: `{"name":"Mug","description":"Ceramic","price":0,"category":"kitchen","inStock":false}`},
		{name: "missing name", mode: ModeCreate, body: `{"description":"Ceramic","price":10,"category":"kitchen"}`, expectedMsg: "Name is required and must be a string"},
		{name: "empty name", mode: ModeCreate, body: `{"name":"","description":"Ceramic","price":10,"category":"kitchen"}`, expectedMsg: "Name is required and must be a string"},
		{name: "name not a string", mode: ModeCreate, body: `{"name":5,"description":"Ceramic","price":10,"category":"kitchen"}`, expectedMsg: "Name is required and must be a string"},
		{name: "missing description", mode: ModeCreate, body: `{"name":"Mug","price":10,"category":"kitchen"}`, expectedMsg: "Description is required and must be a string"},
		{name: "price is a string", mode: ModeCreate, body: `{"name":"Mug","description":"Ceramic","price":"10","category":"kitchen"}`, expectedMsg: "Price is required and must be a non-negative number"},
		{name: "negative price", mode: ModeCreate, body: `{"name":"Mug","description":"Ceramic","price":-1,"category":"kitchen"}`, expectedMsg: "Price is required and must be a non-negative number"},
		{name: "missing price", mode: ModeCreate, body: `{"name":"Mug","description":"Ceramic","category":"kitchen"}`, expectedMsg: "Price is required and must be a non-negative number"},
		{name: "missing category", mode: ModeCreate, body: `{"name":"Mug","description":"Ceramic","price":10}`, expectedMsg: "Category is required and must be a string"},
		{name: "inStock not a boolean", mode: ModeCreate, body: `{"name":"Mug","description":"Ceramic","price":10,"category":"kitchen","inStock":"yes"}`, expectedMsg: "InStock must be a boolean"},
		{name: "first failing field wins", mode: ModeCreate, body: `{"price":-5,"category":7}`, expectedMsg: "Name is required and must be a string"},
		{name: "not an object", mode: ModeCreate, body: `[1,2]`, expectedMsg: invalidBodyMessage},
		{name: "empty body", mode: ModeCreate, body: ``, expectedMsg: invalidBodyMessage},
		{name: "null body", mode: ModeUpdate, body: `null`, expectedMsg: invalidBodyMessage},
		{name: "partial update", mode: ModeUpdate, body: `{"price":999}`},
		{name: "empty update", mode: ModeUpdate, body: `{}`},
		{name: "update negative price", mode: ModeUpdate, body: `{"price":-1}`, expectedMsg: "Price is required and must be a non-negative number"},
		{name: "update empty category", mode: ModeUpdate, body: `{"category":""}`, expectedMsg: "Category is required and must be a string"},
		{name: "update inStock wrong type", mode: ModeUpdate, body: `{"inStock":1}`, expectedMsg: "InStock must be a boolean"},
		{name: "create with mixed-case price", mode: ModeCreate, body: `{"name":"Mug","description":"C","price":5,"category":"k","PRICE":-7}`, expectedMsg: "Price is required and must be a non-negative number"},
		{name: "create with capitalised name", mode: ModeCreate, body: `{"Name":"Mug","description":"C","price":5,"category":"k"}`, expectedMsg: "Name is required and must be a string"},
		{name: "update with capitalised keys", mode: ModeUpdate, body: `{"Price":-50,"Name":""}`, expectedMsg: "Name is required and must be a string"},
		{name: "update with mixed-case stock flag", mode: ModeUpdate, body: `{"INSTOCK":false}`, expectedMsg: "InStock must be a boolean"},
		{name: "unknown keys are ignored", mode: ModeUpdate, body: `{"price":1,"color":"red"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate([]byte(tc.body), tc.mode)
			if tc.expectedMsg == "" {
				assert.NoError(t, err)
				return
			}
			appErr := producterrors.From(err)
			assert.Equal(t, producterrors.KindValidation, appErr.Kind)
			assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
			assert.Equal(t, tc.expectedMsg, appErr.Message)
		})
	}
}

func Test_ProductValidator_Middleware(t *testing.T) {
	v := NewProductValidator(testLogger())

	t.Run("passes the body through unchanged", func(t *testing.T) {
		body := `{"name":"Mug","description":"Ceramic","price":10,"category":"kitchen"}`
		var received string
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			received = string(b)
			w.WriteHeader(http.StatusCreated)
		})
		rr := httptest.NewRecorder()

		v.Middleware(ModeCreate)(next).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(body)))

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, body, received)
	})

	t.Run("short-circuits on invalid payload", func(t *testing.T) {
		called := false
		next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })
		rr := httptest.NewRecorder()

		v.Middleware(ModeCreate)(next).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(`{"name":"Mug"}`)))

		assert.False(t, called)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		var envelope ErrorEnvelope
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
		assert.Equal(t, "ValidationError", envelope.Error.Name)
		assert.Equal(t, "Description is required and must be a string", envelope.Error.Message)
		assert.Equal(t, http.StatusBadRequest, envelope.Error.StatusCode)
		assert.NotEmpty(t, envelope.Error.Timestamp)
	})
}

func Test_ProductValidator_Middleware_BodyTooLarge(t *testing.T) {
	v := NewProductValidator(testLogger())
	called := false
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/products", nil)
	req.Body = http.MaxBytesReader(rr, io.NopCloser(strings.NewReader(`{"name":"`+strings.Repeat("x", 64)+`"}`)), 16)

	v.Middleware(ModeCreate)(next).ServeHTTP(rr, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var envelope ErrorEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
	assert.Equal(t, "ValidationError", envelope.Error.Name)
	assert.Equal(t, "Request body must not exceed 16 bytes", envelope.Error.Message)
}

func Test_APIKeyAuth(t *testing.T) {
	const secret = "s3cret"
	testCases := []struct {
		name         string
		header       string
		expectedCode int
		expectCalled bool
	}{
		{name: "valid key", header: secret, expectedCode: http.StatusNoContent, expectCalled: true},
		{name: "missing key", header: "", expectedCode: http.StatusUnauthorized},
		{name: "wrong key", header: "nope", expectedCode: http.StatusUnauthorized},
		{name: "key prefix only", header: "s3c", expectedCode: http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				called = true
				w.WriteHeader(http.StatusNoContent)
			})
			req := httptest.NewRequest(http.MethodDelete, "/api/products/1", nil)
			if tc.header != "" {
				req.Header.Set(APIKeyHeader, tc.header)
			}
			rr := httptest.NewRecorder()

			APIKeyAuth(secret, testLogger())(next).ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedCode, rr.Code)
			assert.Equal(t, tc.expectCalled, called)
			if !tc.expectCalled {
				var envelope ErrorEnvelope
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
				assert.Equal(t, "AuthenticationError", envelope.Error.Name)
				assert.Equal(t, "Invalid or missing API key", envelope.Error.Message)
			}
		})
	}
}
