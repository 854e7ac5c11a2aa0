package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/justsurfingit/pipeline-crm/internal/apperrors"
	"github.com/justsurfingit/pipeline-crm/internal/middleware"
	"go.uber.org/zap"
)

// base is embedded by every handler.
type base struct {
	Log *zap.Logger
}

// respondError writes err as {status, message}. Anything that is not an HTTPError is
// logged and answered with a bare 500.
func (b base) respondError(c *gin.Context, err error) {
	if httpErr, ok := apperrors.As(err); ok {
		if httpErr.Status >= http.StatusInternalServerError || httpErr.Err != nil {
			b.Log.Warn("request failed",
				zap.String("path", c.FullPath()),
				zap.Int("status", httpErr.Status),
				zap.Error(err))
		}
		c.AbortWithStatusJSON(httpErr.Status, httpErr.Response())
		return
	}
	_ = c.Error(err)
	b.Log.Error("unhandled error",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.String("user_id", middleware.UserID(c)),
		zap.Error(err))
	c.AbortWithStatusJSON(http.StatusInternalServerError,
		apperrors.New(http.StatusInternalServerError, "internal server error").Response())
}

// bindJSON decodes and validates the body, answering 400 itself on failure.
func (b base) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		b.respondError(c, bindError(err))
		return false
	}
	return true
}

func (b base) bindQuery(c *gin.Context, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		b.respondError(c, bindError(err))
		return false
	}
	return true
}

// bindError turns decoding and validation failures into a readable 400.
func bindError(err error) *apperrors.HTTPError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, len(verrs))
		for i, fe := range verrs {
			msgs[i] = fieldMessage(fe)
		}
		return apperrors.BadRequest(strings.Join(msgs, "; ")).Wrap(err)
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return apperrors.BadRequest("request body is empty")
	case errors.As(err, &syntaxErr):
		return apperrors.BadRequest("invalid JSON body").Wrap(err)
	case errors.As(err, &typeErr):
		return apperrors.BadRequest(fmt.Sprintf("%s has the wrong type", lowerFirst(typeErr.Field))).Wrap(err)
	}
	return apperrors.BadRequest("invalid request: " + err.Error()).Wrap(err)
}

func fieldMessage(fe validator.FieldError) string {
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required", "required_without":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "email":
		return field + " must be a valid email address"
	case "url":
		return field + " must be a valid URL"
	case "timezone":
		return field + " must be an IANA time zone"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	}
	return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
