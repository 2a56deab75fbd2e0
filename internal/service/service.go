// service содержит оркестрацию рукопожатия с API вендора:
// запрос ключа сессии -> шифрование пароля -> вход по зашифрованному паролю.
//
// Основные аспекты:
//   - Service не хранит состояние между вызовами: каждое рукопожатие владеет
//     своим KeyMaterial, поэтому Authenticate безопасен для конкурентных
//     вызовов с разными аккаунтами.
//   - Повторов нет. Любая ошибка завершает рукопожатие и возвращается как
//     *HandshakeError со стадией, на которой оно оборвалось.
package service

//go:generate mockgen -source=service.go -destination=../../mocks/mock_service.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pribylovaa/telematics-auth/internal/config"
	"github.com/pribylovaa/telematics-auth/internal/credential"
	"github.com/pribylovaa/telematics-auth/internal/identity"
	"github.com/pribylovaa/telematics-auth/internal/metrics"
	"github.com/pribylovaa/telematics-auth/internal/models"
)

// KeyFetcher запрашивает публичный ключ сессии (см. vendor.Client.FetchKey).
type KeyFetcher interface {
	FetchKey(ctx context.Context, account string) (*models.KeyMaterial, error)
}

// SessionExchanger шифрует пароль ключом сессии и обменивает его на токены
// (см. vendor.Client.Login).
type SessionExchanger interface {
	Login(ctx context.Context, account, secret string, km *models.KeyMaterial) (*models.LoginResult, error)
}

// Stage — стадия рукопожатия, на которой произошла ошибка.
type Stage int

const (
	StageDeriveIdentity Stage = iota + 1
	StageFetchKey
	StageEncrypt
	StageLogin
)

func (s Stage) String() string {
	switch s {
	case StageDeriveIdentity:
		return "derive_identity"
	case StageFetchKey:
		return "fetch_key"
	case StageEncrypt:
		return "encrypt"
	case StageLogin:
		return "login"
	default:
		return "unknown"
	}
}

// State — состояние рукопожатия. Переходы только вперёд:
// Start -> KeyFetched -> Encrypted -> Authenticated.
type State int

const (
	StateStart State = iota
	StateKeyFetched
	StateEncrypted
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateKeyFetched:
		return "key_fetched"
	case StateEncrypted:
		return "encrypted"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// HandshakeError — рукопожатие оборвалось на стадии Stage.
// Исходная ошибка доступна через errors.Is/As (identity.ErrParse,
// vendor.ErrNetwork/ErrHTTP/ErrDecode, credential.Err*).
type HandshakeError struct {
	Stage Stage
	Err   error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("handshake failed at %s: %v", e.Stage, e.Err)
}

func (e *HandshakeError) Unwrap() error { return e.Err }

// classify уточняет стадию по исходной ошибке: идентификатор устройства
// и шифрование выполняются внутри сетевых вызовов клиента.
func classify(call Stage, err error) Stage {
	switch {
	case errors.Is(err, identity.ErrParse):
		return StageDeriveIdentity
	case errors.Is(err, credential.ErrKeyParse),
		errors.Is(err, credential.ErrEncryptTooLarge),
		errors.Is(err, credential.ErrClock):
		return StageEncrypt
	default:
		return call
	}
}

// Service — оркестратор рукопожатия.
type Service struct {
	keys     KeyFetcher
	sessions SessionExchanger
	timeouts config.TimeoutConfig
	metrics  *metrics.Metrics
	now      func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

// WithMetrics включает учёт рукопожатий.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock подменяет часы для замера длительности.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New создаёт новый экземпляр Service.
func New(keys KeyFetcher, sessions SessionExchanger, timeouts config.TimeoutConfig, opts ...Option) *Service {
	s := &Service{
		keys:     keys,
		sessions: sessions,
		timeouts: timeouts,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}
