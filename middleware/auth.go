package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/borischow0801-web/OMS/utils"
)

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}

// AuthMiddleware validates the Bearer token and stores user_id and
// role in the request context for the handlers downstream.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "缺少认证信息")
			return
		}
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			abortUnauthorized(c, "认证信息格式错误")
			return
		}

		token, err := jwt.Parse(tokenString,
			func(*jwt.Token) (interface{}, error) { return utils.JwtSecret(), nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		)
		if err != nil || !token.Valid {
			abortUnauthorized(c, "无效的令牌")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortUnauthorized(c, "无效的令牌")
			return
		}
		// JSON numbers decode as float64.
		userID, ok := claims["user_id"].(float64)
		if !ok || userID <= 0 {
			abortUnauthorized(c, "无效的令牌")
			return
		}

		c.Set("user_id", uint(userID))
		c.Set("role", claims["role"])
		c.Next()
	}
}

// RoleMiddleware rejects requests whose token role is not in the
// whitelist for the route.
func RoleMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get("role")
		userRole, _ := role.(string)
		for _, allowed := range allowedRoles {
			if userRole == allowed {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "没有权限执行该操作"})
	}
}
