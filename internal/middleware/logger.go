package middleware

import (
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestLogger logs every request with latency and recovers from panics.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set("request_id", uuid.NewString())

		defer func() {
			if recovered := recover(); recovered != nil {
				logRequest(c, start, "panic", fmt.Sprintf("%v", recovered))
				log.Printf("panic stack request_id=%s stack=%s", requestID(c), debug.Stack())

				c.JSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "INTERNAL_SERVER_ERROR",
						"message": "Internal Server Error",
					},
				})
				c.Abort()
				return
			}

			status := "ok"
			if c.Writer.Status() >= http.StatusInternalServerError {
				status = "error"
			}
			logRequest(c, start, status, "")
		}()

		c.Next()
	}
}

func logRequest(c *gin.Context, start time.Time, outcome, detail string) {
	log.Printf(
		"request outcome=%s status=%d method=%s path=%s client_ip=%s user_id=%d request_id=%s latency=%s detail=%q",
		outcome,
		c.Writer.Status(),
		c.Request.Method,
		c.Request.URL.Path,
		c.ClientIP(),
		c.GetInt64("user_id"),
		requestID(c),
		time.Since(start),
		detail,
	)
}

func requestID(c *gin.Context) string {
	return c.GetString("request_id")
}
