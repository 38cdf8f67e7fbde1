package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims is the payload of the bearer credential.
//
// Lives in models because services, middleware and ws all read it and
// none of them may import each other.
type TokenClaims struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// AuthResult is what a successful login returns to the client.
type AuthResult struct {
	Token string      `json:"token"`
	User  *PublicUser `json:"user"`
}
