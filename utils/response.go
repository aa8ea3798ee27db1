package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSONResponse defines the uniform structure for API responses.
type JSONResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Respond writes a JSON response with the given status code.
func Respond(ctx *gin.Context, status int, code int, message string, data interface{}) {
	ctx.JSON(status, JSONResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Success returns a standard success response.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusOK, 0, "success", data)
}

// Created returns a success response for a newly created resource.
func Created(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusCreated, 0, "created", data)
}

// Error returns a standard error response.
func Error(ctx *gin.Context, status int, code int, message string) {
	Respond(ctx, status, code, message, nil)
}

// Fail maps err onto a status and business code and writes the error envelope.
// Validation failures include the offending field names in data.fields.
func Fail(ctx *gin.Context, err error) {
	if fields := ValidationFields(err); len(fields) > 0 {
		Respond(ctx, http.StatusBadRequest, 40001, "invalid request payload", gin.H{"fields": fields})
		return
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.EOF) {
		Error(ctx, http.StatusBadRequest, 40002, "malformed json body")
		return
	}
	if errors.As(err, &typeErr) {
		Respond(ctx, http.StatusBadRequest, 40003, "invalid field type", gin.H{"fields": []string{typeErr.Field}})
		return
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		Sugar.Errorw("unhandled error", "path", ctx.Request.URL.Path, "err", err)
		Error(ctx, http.StatusInternalServerError, 50000, "internal error")
		return
	}

	switch appErr.Kind {
	case KindValidation:
		var data interface{}
		if len(appErr.Fields) > 0 {
			data = gin.H{"fields": appErr.Fields}
		}
		Respond(ctx, http.StatusBadRequest, 40000, appErr.Message, data)
	case KindAuthenticationFailure:
		ctx.Header("WWW-Authenticate", "Token")
		Error(ctx, http.StatusUnauthorized, 40100, appErr.Message)
	case KindPermissionDenied:
		Error(ctx, http.StatusForbidden, 40300, appErr.Message)
	case KindNotFound:
		Error(ctx, http.StatusNotFound, 40400, appErr.Message)
	case KindConstraintViolation:
		Error(ctx, http.StatusConflict, 40900, appErr.Message)
	default:
		Sugar.Errorw("storage failure", "path", ctx.Request.URL.Path, "err", appErr.Err)
		Error(ctx, http.StatusInternalServerError, 50001, appErr.Message)
	}
}
