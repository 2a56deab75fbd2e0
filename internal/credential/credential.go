// credential шифрует пароль публичным ключом сессии.
//
// Открытый текст — "<secret>:<unix-секунды>": метка времени внутри шифртекста
// делает каждый результат уникальным и позволяет серверу отбросить повтор
// перехваченного шифртекста.
package credential

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pribylovaa/telematics-auth/internal/models"
)

var (
	// ErrKeyParse — ключ не декодируется из base64/DER или это не RSA-ключ.
	ErrKeyParse = errors.New("credential: malformed public key")
	// ErrEncryptTooLarge — открытый текст не помещается в блок PKCS#1 v1.5.
	ErrEncryptTooLarge = errors.New("credential: plaintext exceeds key capacity")
	// ErrClock — системные часы показывают время раньше эпохи Unix.
	ErrClock = errors.New("credential: clock before unix epoch")
)

// Encryptor шифрует пароли. Нулевое значение непригодно — используйте New.
type Encryptor struct {
	now    func() time.Time
	random io.Reader
}

// Option настраивает Encryptor.
type Option func(*Encryptor)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(e *Encryptor) {
		if now != nil {
			e.now = now
		}
	}
}

// WithRandom подменяет источник случайности для паддинга.
func WithRandom(r io.Reader) Option {
	return func(e *Encryptor) {
		if r != nil {
			e.random = r
		}
	}
}

// New создаёт Encryptor с системными часами и crypto/rand.
func New(opts ...Option) *Encryptor {
	e := &Encryptor{
		now:    time.Now,
		random: rand.Reader,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Encrypt возвращает base64(RSA-PKCS#1 v1.5(pub, "<secret>:<unix>")).
// Префикс версии ключа сюда не входит — его добавляет вызывающий.
func (e *Encryptor) Encrypt(secret string, km *models.KeyMaterial) (string, error) {
	const op = "credential.Encrypt"

	if km == nil {
		return "", fmt.Errorf("%s: nil key material: %w", op, ErrKeyParse)
	}

	pub, err := ParsePublicKey(km.PublicKey)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	ts := e.now().Unix()
	if ts < 0 {
		return "", fmt.Errorf("%s: unix=%d: %w", op, ts, ErrClock)
	}

	plain := secret + ":" + strconv.FormatInt(ts, 10)

	ct, err := rsa.EncryptPKCS1v15(e.random, pub, []byte(plain))
	if err != nil {
		if errors.Is(err, rsa.ErrMessageTooLong) {
			return "", fmt.Errorf("%s: %d bytes for %d-bit key: %w", op, len(plain), pub.N.BitLen(), ErrEncryptTooLarge)
		}

		// ключ разобрался, но непригоден: малая экспонента, слишком короткий модуль
		return "", fmt.Errorf("%s: %w", op, errors.Join(ErrKeyParse, err))
	}

	return base64.StdEncoding.EncodeToString(ct), nil
}

// ParsePublicKey декодирует base64 и разбирает DER: сначала как
// SubjectPublicKeyInfo, затем как голый PKCS#1.
func ParsePublicKey(encoded string) (*rsa.PublicKey, error) {
	const op = "credential.ParsePublicKey"

	der, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%s: base64: %w", op, errors.Join(ErrKeyParse, err))
	}

	if key, err := x509.ParsePKIXPublicKey(der); err == nil {
		pub, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%s: key type %T: %w", op, key, ErrKeyParse)
		}

		return pub, nil
	}

	pub, err := x509.ParsePKCS1PublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%s: der: %w", op, errors.Join(ErrKeyParse, err))
	}

	return pub, nil
}
