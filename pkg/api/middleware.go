// Package api implements the §6 HTTP surface: a thin gin wrapper over the
// Session Runtime. Grounded on the teacher's pkg/api/handlers.go — gin is
// the framework actually declared in the teacher's go.mod (the tree's
// echo-based handler files are an inconsistency from what looks like a
// mid-migration snapshot; see DESIGN.md), and auth.go's header-extraction
// shape, adapted from bearer-token/oauth2-proxy headers to this spec's
// single `user_principal_id` header.
package api

import "github.com/gin-gonic/gin"

const userPrincipalHeader = "user_principal_id"

// requireUserPrincipal extracts user_principal_id from the request header
// and rejects with 400 when it is absent (§6 "all endpoints reject
// requests without one with 400").
func requireUserPrincipal() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(userPrincipalHeader)
		if userID == "" {
			c.AbortWithStatusJSON(400, gin.H{"error": "missing " + userPrincipalHeader + " header"})
			return
		}
		c.Set("user_principal_id", userID)
		c.Next()
	}
}

func userPrincipal(c *gin.Context) string {
	v, _ := c.Get("user_principal_id")
	s, _ := v.(string)
	return s
}
