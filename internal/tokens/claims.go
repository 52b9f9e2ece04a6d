package tokens

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/pulak-sarmah/e-com-auth-service/internal/models"
)

type AccessClaims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims carries the refresh-token record id in RegisteredClaims.ID.
type RefreshClaims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}
