// Package auth provides request identity for the HTTP API. Owner identity
// arrives from a trusted upstream proxy in the X-Owner-ID header;
// authentication proper happens before requests reach this service.
package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bkarjoo/fastgtd-sub000/internal/types"
)

// OwnerHeader carries the caller's owner id, set by the upstream proxy.
const OwnerHeader = "X-Owner-ID"

const ownerContextKey = "auth.owner"

// RequireOwner rejects requests without a well-formed owner identity and
// stores the parsed id on the request context for handlers.
func RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(OwnerHeader)
		owner, err := types.ParseOwnerID(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing or malformed " + OwnerHeader + " header",
			})
			return
		}
		c.Set(ownerContextKey, owner)
		c.Next()
	}
}

// OwnerFromContext returns the identity stored by RequireOwner.
func OwnerFromContext(c *gin.Context) (types.OwnerID, bool) {
	v, ok := c.Get(ownerContextKey)
	if !ok {
		return "", false
	}
	owner, ok := v.(types.OwnerID)
	return owner, ok
}
