package middleware

import (
	"github.com/haierkeys/fast-note-graph-service/pkg/app"
	"github.com/haierkeys/fast-note-graph-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// NoFound answers unknown routes with ErrorNotFoundAPI, naming the route in details
func NoFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		app.NewResponse(c).ToResponse(code.ErrorNotFoundAPI.WithDetails(c.Request.Method + " " + c.Request.URL.Path))
		c.Abort()
	}
}
