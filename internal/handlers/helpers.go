package handlers

import (
	"github.com/gin-gonic/gin"
)

func getStringFromCtx(c *gin.Context, key string) string {
	v, ok := c.Get(key)
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func getUserFromCtx(c *gin.Context) (userID, email string) {
	return getStringFromCtx(c, "user_id"), getStringFromCtx(c, "user_email")
}
