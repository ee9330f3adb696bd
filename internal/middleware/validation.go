package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/yigit/alumnisphere/internal/app/models/dto"
)

// BindJSON binds and validates the request body into obj. On failure it
// writes a 400 response and returns false.
func BindJSON(c *gin.Context, obj interface{}) bool {
	return bindWith(c, obj, c.ShouldBindJSON)
}

// BindQuery binds and validates query parameters into obj
func BindQuery(c *gin.Context, obj interface{}) bool {
	return bindWith(c, obj, c.ShouldBindQuery)
}

func bindWith(c *gin.Context, obj interface{}, bind func(interface{}) error) bool {
	if err := bind(obj); err != nil {
		var verrs validator.ValidationErrors
		var errorDetail *dto.ErrorDetail
		if errors.As(err, &verrs) {
			errorDetail = dto.HandleValidationError(err)
		} else {
			errorDetail = dto.NewErrorDetail(dto.ErrorCodeInvalidRequest, "Invalid request format").
				WithDetails(err.Error())
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return false
	}
	return true
}
