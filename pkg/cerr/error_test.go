package cerr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/agentboard/pkg/storage"
)

func TestCodeMapping(t *testing.T) {
	assert.Equal(t, connect.CodeNotFound, NotFound.ConnectCode())
	assert.Equal(t, connect.CodeUnauthenticated, Unauthenticated.ConnectCode())
	assert.Equal(t, connect.CodeUnknown, OK.ConnectCode())
	assert.Equal(t, "invalid_argument", InvalidArgument.String())
	assert.Equal(t, http.StatusConflict, AlreadyExists.HTTPCode())
	assert.Equal(t, http.StatusUnauthorized, Unauthenticated.HTTPCode())
	assert.Equal(t, http.StatusInternalServerError, Internal.HTTPCode())
}

func TestNewError_StackOnlyForServerSideCodes(t *testing.T) {
	assert.NotEmpty(t, NewError(Internal, "boom", nil).Stack)
	assert.Empty(t, NewError(NotFound, "missing", nil).Stack)
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("title.required", "title is required")
	assert.True(t, IsCode(err, InvalidArgument))
	assert.Equal(t, []string{"title.required"}, Violations(fmt.Errorf("wrapped: %w", err)))

	ce := err.ConnectError()
	assert.Equal(t, connect.CodeInvalidArgument, ce.Code())
	assert.Len(t, ce.Details(), 1)
}

func TestNormalize(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, Canceled, Normalize(ctx, context.Canceled).Code)
	assert.Equal(t, Unknown, Normalize(ctx, errors.New("x")).Code)
	assert.Equal(t, NotFound, Normalize(ctx, connect.NewError(connect.CodeNotFound, errors.New("gone"))).Code)
	assert.Nil(t, Normalize(ctx, nil))
}

func TestWrapStorageReadError(t *testing.T) {
	err := WrapStorageReadError("task", fmt.Errorf("k: %w", storage.ErrNotFound))
	assert.True(t, IsCode(err, NotFound))
	err = WrapStorageReadError("task", errors.New("disk"))
	assert.True(t, IsCode(err, Internal))
}

func TestJSONResponseChiMiddleware(t *testing.T) {
	mw := NewJSONResponseChiMiddleware()

	t.Run("value", func(t *testing.T) {
		h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			SetJSONResponseStatus(r.Context(), http.StatusCreated, map[string]string{"id": "1"})
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.JSONEq(t, `{"id":"1"}`, rec.Body.String())
	})

	t.Run("error", func(t *testing.T) {
		h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			SetJSONError(r.Context(), NewValidationError("title.required", "title is required"))
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"code":"invalid_argument","message":"title is required","violations":["title.required"]}`, rec.Body.String())
	})
}
