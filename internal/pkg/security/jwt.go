package security

import (
	"Marquee/internal/api/config"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	jwtSecret = []byte("Marquee")
	jwtIssuer = defaultIssuer
)

// Init 使用配置中的密钥与签发者，未配置时保留默认值
func Init(cfg config.JWTConfig) {
	if cfg.Secret != "" {
		jwtSecret = []byte(cfg.Secret)
	}
	if cfg.Issuer != "" {
		jwtIssuer = cfg.Issuer
	}
}

// GenerateToken 生成一个新的 JWT Token
func GenerateToken(userID, nickname, avatar string) (string, error) {
	expirationTime := time.Now().Add(JWTExpirationTime)

	claims := &UserClaims{
		UserID:   userID,
		Nickname: nickname,
		Avatar:   avatar,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    jwtIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		return "", fmt.Errorf("签名 Token 失败: %w", err)
	}

	return tokenString, nil
}

// ValidateToken 验证 Token 字符串并解析出 Claims
func ValidateToken(tokenString string) (*UserClaims, error) {
	claims := &UserClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("非预期的签名方法: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	}, jwt.WithIssuer(jwtIssuer))

	if err != nil {
		return nil, fmt.Errorf("token 解析失败: %w", err)
	}

	if !token.Valid {
		return nil, errors.New("token 无效或已过期")
	}
	if claims.UserID == "" {
		return nil, errors.New("token 缺少 user_id")
	}

	return claims, nil
}
