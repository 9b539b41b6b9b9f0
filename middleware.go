package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"meterocr/pkg/log"
)

const (
	ctxRequestID    = "request_id"
	headerRequestID = "X-Request-ID"
)

// requestID reuses a caller supplied X-Request-ID or mints a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Infof("%s %s status=%d elapsed=%s request_id=%s subject=%s",
			c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start),
			c.GetString(ctxRequestID), c.GetString(ctxSubject))
	}
}
