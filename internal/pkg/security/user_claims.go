package security

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	JWTExpirationTime = time.Hour * 24
	defaultIssuer     = "Marquee"
)

// UserClaims 握手 Token 中携带的身份信息
type UserClaims struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar,omitempty"`
	jwt.RegisteredClaims
}
