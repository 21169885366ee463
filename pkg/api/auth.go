package api

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/latticelabs/helix/pkg/store"
)

// Identity headers, injected by an authenticating proxy.
// Priority: X-Helix-Owner > X-Forwarded-User (oauth2-proxy) >
// X-Forwarded-Email (oauth2-proxy). Requests without any fall back to
// the anonymous owner unless the auth gate is on.
const (
	headerOwner  = "X-Helix-Owner"
	headerTenant = "X-Helix-Tenant"

	anonymousOwner = "anonymous"
)

// ownerFor resolves the caller's owner identity. With ENABLE_AGI_AUTH
// set, a missing identity is forbidden.
func (s *Server) ownerFor(c *gin.Context) (string, error) {
	for _, header := range []string{headerOwner, "X-Forwarded-User", "X-Forwarded-Email"} {
		if owner := strings.TrimSpace(c.GetHeader(header)); owner != "" {
			return owner, nil
		}
	}
	if s.cfg.Gates.EnableAGIAuth {
		return "", store.ErrForbidden
	}
	return anonymousOwner, nil
}

// tenantFor resolves the trace tenant: the explicit tenant header when
// present, else the owner identity.
func (s *Server) tenantFor(c *gin.Context) (string, error) {
	if tenant := strings.TrimSpace(c.GetHeader(headerTenant)); tenant != "" {
		return tenant, nil
	}
	return s.ownerFor(c)
}
