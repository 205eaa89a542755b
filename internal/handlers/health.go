package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/teamhub/internal/database"
	"github.com/charlesng35/teamhub/pkg/errors"
	"github.com/charlesng35/teamhub/pkg/response"
)

// Health reports readiness; the database must answer a ping.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := database.Ping(db); err != nil {
			response.Error(c, errors.New(errors.CodeInternal, "Database unavailable", http.StatusServiceUnavailable).WithInternal(err))
			return
		}
		response.Success(c, http.StatusOK, "OK", gin.H{"status": "ok"})
	}
}
