package handlers

import (
	"github.com/gin-gonic/gin"

	"lambda-http-router/internal/middleware"
)

func abortWithError(c *gin.Context, status int, title string, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, middleware.NewErrorResponse(c, title, err.Error()))
}
