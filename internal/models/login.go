package models

import "time"

// LoginResult — результат обмена зашифрованного пароля на токены.
//
// Потребляется только AccessToken; остальные поля декодируются ради
// корректности разбора ответа.
type LoginResult struct {
	// AccessToken — bearer-токен для API вендора.
	AccessToken string
	// RefreshToken — токен обновления (в рамках модуля не используется).
	RefreshToken string
	// AccessExpiresIn / RefreshExpiresIn — сроки жизни токенов.
	AccessExpiresIn  time.Duration
	RefreshExpiresIn time.Duration
	UserID           string
	PartnerID        string
	// TempPassword — вход выполнен по временному паролю.
	TempPassword bool
}
