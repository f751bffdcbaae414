package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TrainerID reads the authenticated trainer from the context, answering the
// request itself when it is missing or malformed.
func TrainerID(c *gin.Context) (uuid.UUID, bool) {
	raw, exists := c.Get("trainerId")
	if !exists {
		RespondWithError(c, http.StatusUnauthorized, "Trainer ID not found in context")
		return uuid.Nil, false
	}
	s, _ := raw.(string)
	id, err := uuid.Parse(s)
	if err != nil {
		RespondWithError(c, http.StatusInternalServerError, "Invalid trainer ID format")
		return uuid.Nil, false
	}
	return id, true
}

// ParamUUID parses a path parameter, answering 400 when it is not a UUID.
func ParamUUID(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, "Invalid "+label+" ID format")
		return uuid.Nil, false
	}
	return id, true
}
