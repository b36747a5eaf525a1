package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireJSON rejects mutating requests whose body is not declared as JSON.
// "application/json; charset=utf-8" style parameters are accepted.
func RequireJSON() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		switch ctx.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			ctx.Next()
			return
		}

		ct := strings.ToLower(ctx.GetHeader("Content-Type"))

		if !strings.HasPrefix(ct, "application/json") {
			ctx.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
				"error": gin.H{
					"code":    "unsupported_media_type",
					"message": "Content-Type must be application/json",
				},
			})
			return
		}

		ctx.Next()
	}
}
