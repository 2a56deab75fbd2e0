package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pribylovaa/telematics-auth/internal/models"
	"github.com/pribylovaa/telematics-auth/internal/pkg/log"
	"github.com/pribylovaa/telematics-auth/internal/pkg/redact"
	"github.com/pribylovaa/telematics-auth/internal/transport/roundtrip"
)

// Authenticate выполняет полное рукопожатие для аккаунта и возвращает токены.
//
// Поток линейный, без повторов. Частичный результат не возвращается:
// при любой ошибке — nil и *HandshakeError (обёрнутый с op).
// Общий срок рукопожатия ограничен timeouts.handshake поверх дедлайна ctx.
func (s *Service) Authenticate(ctx context.Context, account, secret string) (*models.LoginResult, error) {
	const op = "service.Authenticate"

	if s.timeouts.Handshake > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeouts.Handshake)
		defer cancel()
	}

	handshakeID := uuid.NewString()
	ctx = roundtrip.WithRequestID(ctx, handshakeID)
	ctx = log.With(ctx,
		slog.String("handshake_id", handshakeID),
		slog.String("account", redact.Email(account)),
	)
	lg := log.From(ctx)

	h := &handshake{lg: lg, state: StateStart}
	start := s.now()

	fail := func(stage Stage, err error) (*models.LoginResult, error) {
		s.metrics.ObserveHandshake(stage.String(), err, s.now().Sub(start))
		lg.Warn("handshake_failed",
			slog.String("op", op),
			slog.String("stage", stage.String()),
			slog.String("state", h.state.String()),
			slog.String("err", err.Error()),
		)

		return nil, fmt.Errorf("%s: %w", op, &HandshakeError{Stage: stage, Err: err})
	}

	lg.Info("handshake_started", slog.String("op", op))

	km, err := s.keys.FetchKey(ctx, account)
	if err != nil {
		return fail(classify(StageFetchKey, err), err)
	}
	h.advance(StateKeyFetched)

	res, err := s.sessions.Login(ctx, account, secret, km)
	if err != nil {
		stage := classify(StageLogin, err)
		if stage == StageLogin {
			// шифрование выполняется до отправки запроса входа
			h.advance(StateEncrypted)
		}
		return fail(stage, err)
	}
	h.advance(StateEncrypted)
	h.advance(StateAuthenticated)

	elapsed := s.now().Sub(start)
	s.metrics.ObserveHandshake(StageLogin.String(), nil, elapsed)

	info := InspectAccessToken(res.AccessToken)
	lg.Info("handshake_succeeded",
		slog.String("op", op),
		slog.String("access_token", redact.Token(res.AccessToken)),
		slog.Time("expires_at", expiresAt(info, res, s.now())),
		slog.Bool("jwt", !info.Opaque),
		slog.String("user_id", res.UserID),
		slog.Duration("dur", elapsed),
	)

	return res, nil
}

// handshake — состояние одного рукопожатия; живёт только внутри Authenticate.
type handshake struct {
	lg    *slog.Logger
	state State
}

func (h *handshake) advance(to State) {
	h.lg.Debug("handshake_state",
		slog.String("from", h.state.String()),
		slog.String("to", to.String()),
	)
	h.state = to
}
