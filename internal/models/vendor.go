package models

import (
	"errors"
	"time"
)

// Схема запросов/ответов API вендора. Имена полей на проводе в camelCase
// и должны совпадать байт-в-байт, поэтому теги задаются явно.

// UserIDTypeEmail — маркер типа идентификатора пользователя при входе.
const UserIDTypeEmail = "email"

// ErrMissingField — в ответе нет обязательного поля.
var ErrMissingField = errors.New("missing required field")

// ClientIdentity — неизменяемые поля клиента, общие для обоих запросов.
type ClientIdentity struct {
	AppID      string `json:"appId"`
	DeviceID   string `json:"deviceId"`
	Locale     string `json:"locale"`
	SDKVersion string `json:"sdkVersion"`
}

// KeyRequest — параметры запроса публичного ключа (передаются в query).
type KeyRequest struct {
	ClientIdentity
}

// LoginRequest — тело POST-запроса входа.
type LoginRequest struct {
	ClientIdentity
	// Password — зашифрованный пароль с префиксом версии ключа.
	Password   string `json:"password"`
	UserID     string `json:"userId"`
	UserIDType string `json:"userIdType"`
}

// Envelope — обёртка ответа вендора: полезная нагрузка лежит в data.
type Envelope[T any] struct {
	Data *T `json:"data"`
}

// KeyData — data-объект ответа на запрос ключа.
type KeyData struct {
	PublicKey     string `json:"publicKey"`
	VersionPrefix string `json:"versionPrefix"`
	Algorithm     string `json:"algorithm"`
	KeyType       string `json:"keyType"`
}

// ToModel проверяет обязательные поля и конвертирует в KeyMaterial.
func (d KeyData) ToModel() (*KeyMaterial, error) {
	if d.PublicKey == "" {
		return nil, fieldError("publicKey")
	}
	if d.VersionPrefix == "" {
		return nil, fieldError("versionPrefix")
	}

	return &KeyMaterial{
		PublicKey:     d.PublicKey,
		VersionPrefix: d.VersionPrefix,
		Algorithm:     d.Algorithm,
		KeyType:       d.KeyType,
	}, nil
}

// LoginData — data-объект ответа на вход.
type LoginData struct {
	AccessToken      string `json:"accessToken"`
	RefreshToken     string `json:"refreshToken"`
	ExpiresIn        int64  `json:"expiresIn"`        // секунды
	RefreshExpiresIn int64  `json:"refreshExpiresIn"` // секунды
	UserID           string `json:"userId"`
	PartnerID        string `json:"partnerId"`
	TempPassword     bool   `json:"tempPassword"`
}

// ToModel проверяет обязательные поля и конвертирует в LoginResult.
func (d LoginData) ToModel() (*LoginResult, error) {
	if d.AccessToken == "" {
		return nil, fieldError("accessToken")
	}

	return &LoginResult{
		AccessToken:      d.AccessToken,
		RefreshToken:     d.RefreshToken,
		AccessExpiresIn:  time.Duration(d.ExpiresIn) * time.Second,
		RefreshExpiresIn: time.Duration(d.RefreshExpiresIn) * time.Second,
		UserID:           d.UserID,
		PartnerID:        d.PartnerID,
		TempPassword:     d.TempPassword,
	}, nil
}

func fieldError(name string) error {
	return &FieldError{Field: name}
}

// FieldError сообщает, какого именно поля не хватает в ответе.
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string { return ErrMissingField.Error() + ": " + e.Field }

func (e *FieldError) Unwrap() error { return ErrMissingField }
