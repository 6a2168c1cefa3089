package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"app/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusOf(usecase.KindValidation))
	assert.Equal(t, http.StatusNotFound, statusOf(usecase.KindNotFound))
	assert.Equal(t, http.StatusConflict, statusOf(usecase.KindConflict))

	//グラフ異常もConflictとして返す
	assert.Equal(t, http.StatusConflict, statusOf(usecase.KindIntegrityGuard))
	assert.Equal(t, http.StatusInternalServerError, statusOf(usecase.KindInternal))
}

func TestWriteError_AppError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := writeError(c, usecase.NewConflictError("insufficient stock"))

	assert.NoError(t, err)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient stock")
}

func TestWriteError_UnknownErrorIs500(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := writeError(c, errors.New("boom"))

	assert.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	//内部の詳細は漏らさない
	assert.NotContains(t, rec.Body.String(), "boom")
}
