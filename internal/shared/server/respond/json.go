package respond

import "github.com/gin-gonic/gin"

// JSON writes payload with the given HTTP status. Handlers route through
// this instead of calling gin directly so Error stays the only other
// response shape.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}
