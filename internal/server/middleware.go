package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/lotbid/internal/observability/context"
	"github.com/smallbiznis/lotbid/internal/orgcontext"
)

const (
	HeaderOrg   = "X-Org-ID"
	HeaderActor = "X-Actor-ID"

	actorTypeOperator = "operator"
)

// OrgContext resolves the operator's organization from the X-Org-ID header.
// Session handling lives in front of this service.
func OrgContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, err := parseOptionalSnowflakeID(c.GetHeader(HeaderOrg))
		if err != nil || orgID == nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := orgcontext.WithOrgID(c.Request.Context(), int64(*orgID))
		ctx = obscontext.WithOrgID(ctx, orgID.String())
		if actorID := strings.TrimSpace(c.GetHeader(HeaderActor)); actorID != "" {
			ctx = obscontext.WithActor(ctx, actorTypeOperator, actorID)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
