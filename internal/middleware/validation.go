package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/uniadmit/admission/internal/app/models/dto"
	"github.com/uniadmit/admission/internal/pkg/apperrors"
)

// RegisterValidators makes binding errors report JSON field names instead of
// Go struct field names.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
}

// BindJSON decodes the body into obj and renders a 400 (or 413) on failure.
// It reports whether the handler may continue.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		AbortBindError(c, err)
		return false
	}
	return true
}

// BindQuery decodes query parameters into obj.
func BindQuery(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		AbortBindError(c, err)
		return false
	}
	return true
}

// AbortBindError renders a decoding failure; oversized bodies get 413.
func AbortBindError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		AbortWithError(c, http.StatusRequestEntityTooLarge, "Request too large", apperrors.CodeRequestTooLarge)
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.HandleValidationError(err))
}
