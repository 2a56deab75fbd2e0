package roundtrip

import (
	"context"
	"io"
	"net/http"
	"time"
)

// Timeout навешивает дедлайн d на каждый исходящий запрос.
//
// Контракт:
//  1. d <= 0 — контекст не меняется;
//  2. если у контекста уже есть более ранний дедлайн — срабатывает он;
//  3. cancel вызывается при закрытии тела ответа (или сразу при ошибке),
//     поэтому дедлайн покрывает и чтение тела.
func Timeout(d time.Duration) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return Func(func(req *http.Request) (*http.Response, error) {
			if d <= 0 {
				return next.RoundTrip(req)
			}

			ctx, cancel := context.WithTimeout(req.Context(), d)

			resp, err := next.RoundTrip(req.WithContext(ctx))
			if err != nil {
				cancel()
				return nil, err
			}

			resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
			return resp, nil
		})
	}
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
