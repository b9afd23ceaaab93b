package models

import "github.com/golang-jwt/jwt/v5"

// PurposeAdminAccess is the only token purpose this service issues.
const PurposeAdminAccess = "admin_access"

// TokenClaims are the claims embedded in an issued bearer token. Subject is
// the admin username; ClientAddr records where the token was issued to.
type TokenClaims struct {
	Purpose    string `json:"purpose"`
	ClientAddr string `json:"ip,omitempty"`
	jwt.RegisteredClaims
}
