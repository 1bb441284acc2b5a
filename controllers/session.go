package controllers

import (
	"errors"
	"log"
	"net/http"

	"PhotoReveal/services/registry"
	"PhotoReveal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type createSessionRequest struct {
	Name string `json:"name"`
}

// @Summary Creates a new photo-reveal session
// @Description Generates a unique 6-character code and returns it with the session record
// @Tags sessions
// @Accept json
// @Produce json
// @Param body body object{name=string} true "Session name (max 50 chars)"
// @Success 200 {object} object{code=string,session=object}
// @Failure 400 {object} object{error=string}
// @Failure 500 {object} object{error=string}
// @Router /api/sessions [post]
func CreateSession(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid name"})
			return
		}

		session, err := reg.CreateSession(req.Name)
		if err != nil {
			if errors.Is(err, utils.ErrValidation) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid name"})
				return
			}
			log.Printf("Error creating session: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"code":    session.Code,
			"session": session,
		})
	}
}

// @Summary Looks a session up by its code
// @Description Malformed codes fail fast with 400 before any store access
// @Tags sessions
// @Produce json
// @Param code path string true "6-character session code"
// @Success 200 {object} object{id=string,code=string,name=string,created_at=string,active=bool}
// @Failure 400 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Failure 500 {object} object{error=string}
// @Router /api/sessions/{code} [get]
func GetSession(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Param("code")

		session, err := reg.GetSessionByCode(code)
		if err != nil {
			switch {
			case errors.Is(err, utils.ErrValidation):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session code"})
			case errors.Is(err, utils.ErrSessionNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			default:
				log.Printf("Error getting session: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			}
			return
		}

		c.JSON(http.StatusOK, session)
	}
}

// @Summary Health check
// @Description Reports database connectivity
// @Tags health
// @Produce json
// @Success 200 {object} object{status=string}
// @Failure 500 {object} object{status=string,error=string}
// @Router /health [get]
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.Ping()
		}
		if err != nil {
			log.Printf("Health check failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"status": "unhealthy",
				"error":  "database unreachable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	}
}
