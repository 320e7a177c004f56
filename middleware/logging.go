package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RequestLogger logs the method and full URL of every request before it is
// dispatched.
func RequestLogger(lg zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		lg.Info().
			Str("method", c.Request.Method).
			Str("url", fullURL(c.Request)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
		c.Next()
	}
}

// Recovery turns a handler panic into a 500 and logs it.
func Recovery(lg zerolog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, err any) {
		lg.Error().Interface("panic", err).Str("path", c.Request.URL.Path).Msg("handler panicked")
		c.AbortWithStatus(http.StatusInternalServerError)
	})
}

func fullURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
