package roundtrip

import "net/http"

// Headers выставляет заголовки, без которых вендор не принимает запросы:
//   - User-Agent — фиксированная строка мобильного клиента (если не пустая);
//   - X-Request-Id — если идентификатор есть в контексте.
//
// Исходный запрос не модифицируется (контракт http.RoundTripper), работаем с клоном.
func Headers(userAgent string) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return Func(func(req *http.Request) (*http.Response, error) {
			out := req.Clone(req.Context())

			if userAgent != "" {
				out.Header.Set("User-Agent", userAgent)
			}
			if rid := RequestID(req.Context()); rid != "" {
				out.Header.Set("X-Request-Id", rid)
			}

			return next.RoundTrip(out)
		})
	}
}
