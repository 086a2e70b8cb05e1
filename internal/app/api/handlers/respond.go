package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/backoffice/internal/apperr"
	"github.com/fatflowers/backoffice/internal/store"
	"github.com/fatflowers/backoffice/pkg/logctx"
	"github.com/fatflowers/backoffice/pkg/response"
)

// codeOf maps service errors onto envelope codes.
func codeOf(err error) response.APIResponseCode {
	switch {
	case err == nil:
		return response.APIResponseCodeOK
	case errors.Is(err, apperr.ErrInvalidArgument):
		return response.APIResponseCodeBadRequest
	case errors.Is(err, apperr.ErrUnauthenticated), errors.Is(err, apperr.ErrInvalidCredentials):
		return response.APIResponseCodeUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		return response.APIResponseCodeForbidden
	case errors.Is(err, store.ErrNotFound):
		return response.APIResponseCodeNotFound
	case errors.Is(err, store.ErrConflict):
		return response.APIResponseCodeConflict
	default:
		return response.APIResponseCodeError
	}
}

// fail writes the envelope for err. Internal errors are logged through the
// request logger when one is set, log otherwise, and never echoed.
func fail(c *gin.Context, log *zap.SugaredLogger, err error) {
	code := codeOf(err)
	msg := err.Error()
	if code == response.APIResponseCodeError {
		logctx.FromGin(c, log).Errorw("request failed", "path", c.FullPath(), "err", err)
		msg = "internal error"
	}
	c.JSON(code.HTTPStatus(), response.ErrorT[any](code, msg))
}

func badRequest(c *gin.Context, msg string) {
	code := response.APIResponseCodeBadRequest
	c.JSON(code.HTTPStatus(), response.ErrorT[any](code, msg))
}

func ok[T any](c *gin.Context, data T) {
	c.JSON(http.StatusOK, response.OKT(data))
}

func created[T any](c *gin.Context, data T) {
	c.JSON(http.StatusCreated, response.OKT(data))
}

// idParam reads a positive integer path parameter, writing 400 otherwise.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}
