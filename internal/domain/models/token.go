// internal/domain/models/token.go
package models

// TokenPair is what every successful login or refresh returns.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// TokenTypeBearer is the only token_type this service issues.
const TokenTypeBearer = "bearer"
