package models

import "time"

// TokenInfo — сведения из access-токена, прочитанные без проверки подписи.
type TokenInfo struct {
	// Opaque — токен не является JWT; остальные поля пусты.
	Opaque    bool      `json:"opaque"`
	Subject   string    `json:"subject,omitempty"`
	Issuer    string    `json:"issuer,omitempty"`
	IssuedAt  time.Time `json:"issued_at,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}
