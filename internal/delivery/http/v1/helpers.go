package v1

import (
	"strings"

	"swiftjobs-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

// actorID returns the id sent by the client, falling back to the
// authenticated caller. Usecases reject ids that differ from the caller.
func actorID(c *gin.Context, sent string) string {
	if sent = strings.TrimSpace(sent); sent != "" {
		return sent
	}
	return c.GetString(string(domain.KeyUserID))
}
