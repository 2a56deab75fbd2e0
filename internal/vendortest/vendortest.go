// vendortest — поддельный API вендора для тестов: выдаёт публичный ключ сессии
// и проверяет зашифрованный пароль соответствующим приватным ключом.
package vendortest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/telematics-auth/internal/config"
)

// Значения, которые поддельный сервер ожидает и отдаёт.
const (
	KeyPath       = "/auth/v1/public-key"
	LoginPath     = "/auth/v1/login"
	VersionPrefix = "v3:"
	UserAgent     = "TestUA/1.0 (Android 14)"
	Password      = "hunter2"
	AccessToken   = "access-token-0123456789"
	RefreshToken  = "refresh-token-0123456789"
)

var (
	keyOnce sync.Once
	key     *rsa.PrivateKey
)

// Key — общий для всех тестов 2048-битный ключ (генерация дорогая).
func Key() *rsa.PrivateKey {
	keyOnce.Do(func() {
		k, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		key = k
	})

	return key
}

// PublicKeyB64 — публичный ключ в формате, в котором его отдаёт вендор.
func PublicKeyB64(k *rsa.PrivateKey) string {
	der, err := x509.MarshalPKIXPublicKey(&k.PublicKey)
	if err != nil {
		panic(err)
	}

	return base64.StdEncoding.EncodeToString(der)
}

// Server — поддельный вендор поверх httptest.Server.
type Server struct {
	*httptest.Server

	// KeyHandler / LoginHandler переопределяют ответ (после записи запроса).
	KeyHandler   http.HandlerFunc
	LoginHandler http.HandlerFunc

	mu         sync.Mutex
	keyCalls   int
	loginCalls int
	keyQuery   url.Values
	keyHeader  http.Header
	loginBody  map[string]any
	loginHdr   http.Header
	plaintext  string
}

// New запускает сервер; он закрывается в t.Cleanup.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{}

	r := chi.NewRouter()
	r.Get(KeyPath, s.handleKey)
	r.Post(LoginPath, s.handleLogin)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)

	return s
}

// VendorConfig — конфигурация клиента, указывающая на этот сервер.
func (s *Server) VendorConfig() config.VendorConfig {
	return config.VendorConfig{
		BaseURL:      s.URL,
		KeyPath:      KeyPath,
		LoginPath:    LoginPath,
		AppID:        "app-test",
		Locale:       "en_US",
		SDKVersion:   "1.2.3",
		UserAgent:    UserAgent,
		DevicePrefix: "ACCT",
	}
}

// Timeouts — таймауты, с которыми тесты не упираются в медленный CI.
func Timeouts() config.TimeoutConfig {
	return config.TimeoutConfig{Request: 5 * time.Second, Handshake: 10 * time.Second}
}

// Calls — сколько раз вызывались эндпоинты.
func (s *Server) Calls() (keyCalls, loginCalls int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keyCalls, s.loginCalls
}

// KeyRequest — query и заголовки последнего запроса ключа.
func (s *Server) KeyRequest() (url.Values, http.Header) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keyQuery, s.keyHeader
}

// LoginRequest — тело и заголовки последнего запроса входа.
func (s *Server) LoginRequest() (map[string]any, http.Header) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loginBody, s.loginHdr
}

// Plaintext — расшифрованный пароль из последнего входа.
func (s *Server) Plaintext() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plaintext
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.keyCalls++
	s.keyQuery = r.URL.Query()
	s.keyHeader = r.Header.Clone()
	override := s.KeyHandler
	s.mu.Unlock()

	if override != nil {
		override(w, r)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"publicKey":     PublicKeyB64(Key()),
			"versionPrefix": VersionPrefix,
			"algorithm":     "RSA",
			"keyType":       "PKCS1",
		},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]any{"message": "bad json"})
		return
	}

	s.mu.Lock()
	s.loginCalls++
	s.loginBody = body
	s.loginHdr = r.Header.Clone()
	override := s.LoginHandler
	s.mu.Unlock()

	if override != nil {
		override(w, r)
		return
	}

	pw, _ := body["password"].(string)
	if !strings.HasPrefix(pw, VersionPrefix) {
		WriteJSON(w, http.StatusBadRequest, map[string]any{"message": "unknown key version"})
		return
	}

	ct, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(pw, VersionPrefix))
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]any{"message": "bad ciphertext"})
		return
	}

	plain, err := rsa.DecryptPKCS1v15(rand.Reader, Key(), ct)
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]any{"message": "decrypt failed"})
		return
	}

	s.mu.Lock()
	s.plaintext = string(plain)
	s.mu.Unlock()

	if !strings.HasPrefix(string(plain), Password+":") {
		WriteJSON(w, http.StatusUnauthorized, map[string]any{"message": "invalid credentials"})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"accessToken":      AccessToken,
			"refreshToken":     RefreshToken,
			"expiresIn":        3600,
			"refreshExpiresIn": 2592000,
			"userId":           "u-1",
			"partnerId":        "p-1",
			"tempPassword":     false,
		},
	})
}

// WriteJSON — ответ JSON с нужным Content-Type.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
