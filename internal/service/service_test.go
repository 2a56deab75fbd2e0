package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/telematics-auth/internal/config"
	"github.com/pribylovaa/telematics-auth/internal/credential"
	"github.com/pribylovaa/telematics-auth/internal/identity"
	"github.com/pribylovaa/telematics-auth/internal/metrics"
	"github.com/pribylovaa/telematics-auth/internal/models"
	"github.com/pribylovaa/telematics-auth/internal/pkg/log"
	"github.com/pribylovaa/telematics-auth/internal/transport/roundtrip"
	"github.com/pribylovaa/telematics-auth/internal/vendor"
	"github.com/pribylovaa/telematics-auth/mocks"
)

const (
	testAccount = "bob@example.com"
	testSecret  = "hunter2"
)

// record — сохранённая запись лога вместе с атрибутами логгера.
type record struct {
	msg   string
	level slog.Level
	attrs map[string]string
}

type capStore struct {
	mu      sync.Mutex
	records []record
}

// capHandler — slog.Handler, запоминающий все записи (включая атрибуты из With).
type capHandler struct {
	store *capStore
	pre   []slog.Attr
}

func newCap() *capHandler { return &capHandler{store: &capStore{}} }

func (h *capHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *capHandler) Handle(_ context.Context, r slog.Record) error {
	out := make(map[string]string, len(h.pre)+r.NumAttrs())
	for _, a := range h.pre {
		out[a.Key] = a.Value.String()
	}
	r.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.String()
		return true
	})

	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	h.store.records = append(h.store.records, record{msg: r.Message, level: r.Level, attrs: out})
	return nil
}

func (h *capHandler) WithAttrs(as []slog.Attr) slog.Handler {
	pre := append(append([]slog.Attr{}, h.pre...), as...)
	return &capHandler{store: h.store, pre: pre}
}

func (h *capHandler) WithGroup(string) slog.Handler { return h }

func (h *capHandler) find(msg string) (record, bool) {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	for _, r := range h.store.records {
		if r.msg == msg {
			return r, true
		}
	}
	return record{}, false
}

func (h *capHandler) all() []record {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	return append([]record(nil), h.store.records...)
}

func testTimeouts() config.TimeoutConfig {
	return config.TimeoutConfig{Request: time.Second, Handshake: 5 * time.Second}
}

func newSvc(t *testing.T, opts ...Option) (*Service, *mocks.MockKeyFetcher, *mocks.MockSessionExchanger, *gomock.Controller) {
	t.Helper()
	ctrl := gomock.NewController(t)
	keys := mocks.NewMockKeyFetcher(ctrl)
	sessions := mocks.NewMockSessionExchanger(ctrl)
	return New(keys, sessions, testTimeouts(), opts...), keys, sessions, ctrl
}

func testKM() *models.KeyMaterial {
	return &models.KeyMaterial{PublicKey: "AAAA", VersionPrefix: "v3:"}
}

func requireStage(t *testing.T, err error, want Stage) {
	t.Helper()
	var he *HandshakeError
	require.ErrorAs(t, err, &he)
	require.Equal(t, want, he.Stage)
}

func TestAuthenticate_OK(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	svc, keys, sessions, ctrl := newSvc(t, WithMetrics(metrics.New(reg)))
	defer ctrl.Finish()

	km := testKM()
	want := &models.LoginResult{AccessToken: "at", RefreshToken: "rt", AccessExpiresIn: time.Hour}

	gomock.InOrder(
		keys.EXPECT().FetchKey(gomock.Any(), testAccount).Return(km, nil),
		sessions.EXPECT().Login(gomock.Any(), testAccount, testSecret, km).Return(want, nil),
	)

	res, err := svc.Authenticate(context.Background(), testAccount, testSecret)
	require.NoError(t, err)
	require.Equal(t, want, res)

	const expected = `
# HELP telematics_auth_handshake_total Completed handshakes by terminal stage and result.
# TYPE telematics_auth_handshake_total counter
telematics_auth_handshake_total{result="ok",stage="login"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "telematics_auth_handshake_total"))
}

// TestAuthenticate_FetchKeyHTTP500_StopsBeforeLogin — ошибка ключа обрывает
// рукопожатие: Login не вызывается (gomock упадёт на неожиданном вызове).
func TestAuthenticate_FetchKeyHTTP500_StopsBeforeLogin(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	svc, keys, _, ctrl := newSvc(t, WithMetrics(metrics.New(reg)))
	defer ctrl.Finish()

	keys.EXPECT().FetchKey(gomock.Any(), testAccount).
		Return(nil, fmt.Errorf("vendor.FetchKey: %w", &vendor.StatusError{Endpoint: vendor.EndpointKey, StatusCode: 500}))

	res, err := svc.Authenticate(context.Background(), testAccount, testSecret)
	require.Nil(t, res)
	require.ErrorIs(t, err, vendor.ErrHTTP)
	requireStage(t, err, StageFetchKey)

	var se *vendor.StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, 500, se.StatusCode)

	const expected = `
# HELP telematics_auth_handshake_total Completed handshakes by terminal stage and result.
# TYPE telematics_auth_handshake_total counter
telematics_auth_handshake_total{result="error",stage="fetch_key"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "telematics_auth_handshake_total"))
}

func TestAuthenticate_StageClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		fetchErr  error
		loginErr  error
		wantStage Stage
		wantIs    error
	}{
		{
			name:      "device_id_overflow",
			fetchErr:  fmt.Errorf("vendor.FetchKey: %w", identity.ErrParse),
			wantStage: StageDeriveIdentity,
			wantIs:    identity.ErrParse,
		},
		{
			name:      "fetch_network",
			fetchErr:  errors.Join(vendor.ErrNetwork, errors.New("connection refused")),
			wantStage: StageFetchKey,
			wantIs:    vendor.ErrNetwork,
		},
		{
			name:      "fetch_decode",
			fetchErr:  fmt.Errorf("%w: missing data object", vendor.ErrDecode),
			wantStage: StageFetchKey,
			wantIs:    vendor.ErrDecode,
		},
		{
			name:      "key_parse",
			loginErr:  fmt.Errorf("vendor.Login: %w", credential.ErrKeyParse),
			wantStage: StageEncrypt,
			wantIs:    credential.ErrKeyParse,
		},
		{
			name:      "too_large",
			loginErr:  credential.ErrEncryptTooLarge,
			wantStage: StageEncrypt,
			wantIs:    credential.ErrEncryptTooLarge,
		},
		{
			name:      "clock",
			loginErr:  credential.ErrClock,
			wantStage: StageEncrypt,
			wantIs:    credential.ErrClock,
		},
		{
			name:      "login_http",
			loginErr:  &vendor.StatusError{Endpoint: vendor.EndpointLogin, StatusCode: 401},
			wantStage: StageLogin,
			wantIs:    vendor.ErrHTTP,
		},
		{
			name:      "login_network",
			loginErr:  errors.Join(vendor.ErrNetwork, context.DeadlineExceeded),
			wantStage: StageLogin,
			wantIs:    vendor.ErrNetwork,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, keys, sessions, ctrl := newSvc(t)
			defer ctrl.Finish()

			if tt.fetchErr != nil {
				keys.EXPECT().FetchKey(gomock.Any(), testAccount).Return(nil, tt.fetchErr)
			} else {
				keys.EXPECT().FetchKey(gomock.Any(), testAccount).Return(testKM(), nil)
				sessions.EXPECT().Login(gomock.Any(), testAccount, testSecret, gomock.Any()).Return(nil, tt.loginErr)
			}

			res, err := svc.Authenticate(context.Background(), testAccount, testSecret)
			require.Nil(t, res)
			require.ErrorIs(t, err, tt.wantIs)
			requireStage(t, err, tt.wantStage)
		})
	}
}

// TestAuthenticate_LoginDecode_NoPartialResult — даже если обменщик вернул
// что-то вместе с ошибкой, наружу уходит nil.
func TestAuthenticate_LoginDecode_NoPartialResult(t *testing.T) {
	t.Parallel()

	svc, keys, sessions, ctrl := newSvc(t)
	defer ctrl.Finish()

	keys.EXPECT().FetchKey(gomock.Any(), testAccount).Return(testKM(), nil)
	sessions.EXPECT().Login(gomock.Any(), testAccount, testSecret, gomock.Any()).
		Return(&models.LoginResult{RefreshToken: "rt"}, errors.Join(vendor.ErrDecode, models.ErrMissingField))

	res, err := svc.Authenticate(context.Background(), testAccount, testSecret)
	require.Nil(t, res)
	require.ErrorIs(t, err, vendor.ErrDecode)
	requireStage(t, err, StageLogin)
}

func TestAuthenticate_HandshakeTimeout(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	keys := mocks.NewMockKeyFetcher(ctrl)
	sessions := mocks.NewMockSessionExchanger(ctrl)
	svc := New(keys, sessions, config.TimeoutConfig{Request: time.Second, Handshake: 30 * time.Millisecond})

	keys.EXPECT().FetchKey(gomock.Any(), testAccount).
		DoAndReturn(func(ctx context.Context, _ string) (*models.KeyMaterial, error) {
			<-ctx.Done()
			return nil, errors.Join(vendor.ErrNetwork, ctx.Err())
		})

	start := time.Now()
	_, err := svc.Authenticate(context.Background(), testAccount, testSecret)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	requireStage(t, err, StageFetchKey)
	require.Less(t, time.Since(start), 2*time.Second)
}

// TestAuthenticate_SharesRequestID — оба вызова видят один id рукопожатия.
func TestAuthenticate_SharesRequestID(t *testing.T) {
	t.Parallel()

	svc, keys, sessions, ctrl := newSvc(t)
	defer ctrl.Finish()

	var fetchID, loginID string
	keys.EXPECT().FetchKey(gomock.Any(), testAccount).
		DoAndReturn(func(ctx context.Context, _ string) (*models.KeyMaterial, error) {
			fetchID = roundtrip.RequestID(ctx)
			return testKM(), nil
		})
	sessions.EXPECT().Login(gomock.Any(), testAccount, testSecret, gomock.Any()).
		DoAndReturn(func(ctx context.Context, _, _ string, _ *models.KeyMaterial) (*models.LoginResult, error) {
			loginID = roundtrip.RequestID(ctx)
			return &models.LoginResult{AccessToken: "at"}, nil
		})

	_, err := svc.Authenticate(context.Background(), testAccount, testSecret)
	require.NoError(t, err)

	_, err = uuid.Parse(fetchID)
	require.NoError(t, err)
	require.Equal(t, fetchID, loginID)
}

// TestAuthenticate_LogsWithoutSecrets — ни пароль, ни e-mail, ни токен не
// попадают в лог в открытом виде.
func TestAuthenticate_LogsWithoutSecrets(t *testing.T) {
	t.Parallel()

	svc, keys, sessions, ctrl := newSvc(t)
	defer ctrl.Finish()

	const token = "access-token-very-secret-0123456789"
	keys.EXPECT().FetchKey(gomock.Any(), testAccount).Return(testKM(), nil)
	sessions.EXPECT().Login(gomock.Any(), testAccount, testSecret, gomock.Any()).
		Return(&models.LoginResult{AccessToken: token}, nil)

	h := newCap()
	ctx := log.Into(context.Background(), slog.New(h))

	_, err := svc.Authenticate(ctx, testAccount, testSecret)
	require.NoError(t, err)

	ok, found := h.find("handshake_succeeded")
	require.True(t, found)
	require.NotEmpty(t, ok.attrs["handshake_id"])
	require.Equal(t, "false", ok.attrs["jwt"])

	for _, r := range h.all() {
		for k, v := range r.attrs {
			require.NotContains(t, v, testSecret, "%s.%s", r.msg, k)
			require.NotContains(t, v, testAccount, "%s.%s", r.msg, k)
			require.NotContains(t, v, token, "%s.%s", r.msg, k)
		}
	}

	var states []string
	for _, r := range h.all() {
		if r.msg == "handshake_state" {
			states = append(states, r.attrs["to"])
		}
	}
	require.Equal(t, []string{"key_fetched", "encrypted", "authenticated"}, states)
}

func TestAuthenticate_LogsFailedStage(t *testing.T) {
	t.Parallel()

	svc, keys, sessions, ctrl := newSvc(t)
	defer ctrl.Finish()

	keys.EXPECT().FetchKey(gomock.Any(), testAccount).Return(testKM(), nil)
	sessions.EXPECT().Login(gomock.Any(), testAccount, testSecret, gomock.Any()).
		Return(nil, &vendor.StatusError{Endpoint: vendor.EndpointLogin, StatusCode: 401})

	h := newCap()
	ctx := log.Into(context.Background(), slog.New(h))

	_, err := svc.Authenticate(ctx, testAccount, testSecret)
	require.Error(t, err)

	r, found := h.find("handshake_failed")
	require.True(t, found)
	require.Equal(t, slog.LevelWarn, r.level)
	require.Equal(t, "login", r.attrs["stage"])
	require.Equal(t, "encrypted", r.attrs["state"])
}

func TestHandshakeError_Message(t *testing.T) {
	t.Parallel()

	err := &HandshakeError{Stage: StageEncrypt, Err: credential.ErrKeyParse}
	require.Equal(t, "handshake failed at encrypt: credential: malformed public key", err.Error())
	require.ErrorIs(t, err, credential.ErrKeyParse)
}

func TestStageAndState_String(t *testing.T) {
	t.Parallel()

	require.Equal(t, "derive_identity", StageDeriveIdentity.String())
	require.Equal(t, "fetch_key", StageFetchKey.String())
	require.Equal(t, "encrypt", StageEncrypt.String())
	require.Equal(t, "login", StageLogin.String())
	require.Equal(t, "unknown", Stage(0).String())

	require.Equal(t, "start", StateStart.String())
	require.Equal(t, "key_fetched", StateKeyFetched.String())
	require.Equal(t, "encrypted", StateEncrypted.String())
	require.Equal(t, "authenticated", StateAuthenticated.String())
	require.Equal(t, "unknown", State(42).String())
}

func TestClassify(t *testing.T) {
	t.Parallel()

	require.Equal(t, StageLogin, classify(StageLogin, &vendor.StatusError{StatusCode: http.StatusBadRequest}))
	require.Equal(t, StageEncrypt, classify(StageLogin, credential.ErrClock))
	require.Equal(t, StageDeriveIdentity, classify(StageFetchKey, identity.ErrParse))
	require.Equal(t, StageFetchKey, classify(StageFetchKey, errors.New("boom")))
}
