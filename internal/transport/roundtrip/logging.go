package roundtrip

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pribylovaa/telematics-auth/internal/pkg/log"
)

// Logging пишет одну запись на исходящий запрос логгером из контекста (pkg/log).
//
// Поля: endpoint, method, host, path, status, dur. Query и тело не логируются:
// там идентификатор устройства и зашифрованный пароль.
func Logging() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return Func(func(req *http.Request) (*http.Response, error) {
			ctx := req.Context()
			lg := log.From(ctx)
			start := time.Now()

			resp, err := next.RoundTrip(req)

			attrs := []slog.Attr{
				slog.String("endpoint", Endpoint(ctx)),
				slog.String("method", req.Method),
				slog.String("host", req.URL.Host),
				slog.String("path", req.URL.Path),
				slog.Duration("dur", time.Since(start)),
			}

			if err != nil {
				attrs = append(attrs, slog.String("err", err.Error()))
				lg.LogAttrs(ctx, slog.LevelWarn, "http_out_failed", attrs...)
				return nil, err
			}

			attrs = append(attrs, slog.Int("status", resp.StatusCode))
			lg.LogAttrs(ctx, slog.LevelDebug, "http_out", attrs...)

			return resp, nil
		})
	}
}
