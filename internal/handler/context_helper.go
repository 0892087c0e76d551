package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/motbook/motbook-api/internal/middleware"
	"github.com/motbook/motbook-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// actorFromContext turns the authenticated claims into a BookingActor.
// Routes behind the JWT middleware always have one.
func actorFromContext(c *gin.Context) models.BookingActor {
	claims := claimsFromContext(c)
	if claims == nil {
		return models.BookingActor{}
	}
	return models.BookingActor{UserID: claims.UserID, Role: claims.Role}
}
