package security

import (
	"Marquee/internal/api/config"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestGenerate_And_Validate_Token(t *testing.T) {
	req := require.New(t)
	Init(config.JWTConfig{Secret: "test-secret", Issuer: "marquee-test"})

	token, err := GenerateToken("u1", "Alice", "https://cdn/a.png")
	req.NoError(err)

	claims, err := ValidateToken(token)
	req.NoError(err)
	req.Equal("u1", claims.UserID)
	req.Equal("Alice", claims.Nickname)
	req.Equal("https://cdn/a.png", claims.Avatar)
}

func TestValidateToken_Rejects(t *testing.T) {
	Init(config.JWTConfig{Secret: "test-secret", Issuer: "marquee-test"})

	sign := func(claims *UserClaims, method jwt.SigningMethod, key any) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	valid := func() *UserClaims {
		return &UserClaims{
			UserID: "u1",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "marquee-test",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
	}

	expired := valid()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	wrongIssuer := valid()
	wrongIssuer.Issuer = "someone-else"
	noUser := valid()
	noUser.UserID = ""

	cases := map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": sign(valid(), jwt.SigningMethodHS256, []byte("other")),
		"none alg":     sign(valid(), jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType),
		"expired":      sign(expired, jwt.SigningMethodHS256, []byte("test-secret")),
		"wrong issuer": sign(wrongIssuer, jwt.SigningMethodHS256, []byte("test-secret")),
		"no user":      sign(noUser, jwt.SigningMethodHS256, []byte("test-secret")),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ValidateToken(token)
			require.Error(t, err)
		})
	}
}
