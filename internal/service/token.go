package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pribylovaa/telematics-auth/internal/models"
)

// InspectAccessToken читает claims access-токена без проверки подписи.
// Подпись проверяет только вендор; результат годится для логов и вывода CLI,
// но не для принятия решений о доверии.
// Токены, не являющиеся JWT, помечаются как Opaque.
func InspectAccessToken(token string) models.TokenInfo {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return models.TokenInfo{Opaque: true}
	}

	info := models.TokenInfo{
		Subject: claims.Subject,
		Issuer:  claims.Issuer,
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time.UTC()
	}

	return info
}

// expiresAt — момент истечения токена: из claims, иначе по expiresIn ответа.
func expiresAt(info models.TokenInfo, res *models.LoginResult, now time.Time) time.Time {
	if !info.ExpiresAt.IsZero() {
		return info.ExpiresAt
	}

	return now.Add(res.AccessExpiresIn).UTC()
}
