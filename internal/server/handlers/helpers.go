package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mamadbah2/brownie/internal/apperror"
	"github.com/mamadbah2/brownie/internal/domain/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// A zero Timestamp counts as missing for required.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if ts, ok := field.Interface().(models.Timestamp); ok && !ts.IsZero() {
			return ts.UnixNano()
		}
		return nil
	}, models.Timestamp{})

	return v
}

// errorResponse is the envelope of every 4xx/5xx response.
type errorResponse struct {
	Detail   string            `json:"detail"`
	Upstream any               `json:"upstream,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
}

// messageResponse wraps successful writes.
type messageResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// normalizer is implemented by requests that clean their fields (trimming
// names and categories) before validation.
type normalizer interface {
	normalize()
}

// bindAndValidate binds the JSON body, normalizes it and runs the validate
// tags. On failure it writes the 422 response and returns false.
func bindAndValidate(c *gin.Context, logger *zap.Logger, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeError(c, logger, apperror.Validation("JSON inválido: "+err.Error(), nil))
		return false
	}
	if n, ok := req.(normalizer); ok {
		n.normalize()
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			writeError(c, logger, apperror.Wrap(apperror.KindUnexpected, err, "falha ao validar a requisição"))
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		writeError(c, logger, apperror.Validation("erro de validação", fields))
		return false
	}
	return true
}

// writeError maps err to its status and the error envelope.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	status := apperror.HTTPStatus(err)
	resp := errorResponse{Detail: "erro inesperado"}

	if appErr, ok := apperror.As(err); ok {
		resp.Detail = appErr.Message
		resp.Upstream = appErr.Payload
		resp.Fields = appErr.Fields
	}

	fields := []zap.Field{
		zap.String("path", c.FullPath()),
		zap.Int("status", status),
		zap.String("kind", string(apperror.KindOf(err))),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", fields...)
	} else {
		logger.Warn("request rejected", fields...)
	}

	c.AbortWithStatusJSON(status, resp)
}

// pathCategory reads the trimmed :categoria path parameter, writing a 422
// when it is blank.
func pathCategory(c *gin.Context, logger *zap.Logger) (string, bool) {
	category := strings.TrimSpace(c.Param("categoria"))
	if category == "" {
		writeError(c, logger, apperror.Validation("erro de validação", map[string]string{"categoria": "required"}))
		return "", false
	}
	return category, true
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
