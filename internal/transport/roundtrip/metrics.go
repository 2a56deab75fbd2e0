package roundtrip

import (
	"net/http"

	"github.com/pribylovaa/telematics-auth/internal/metrics"
)

// Metrics считает исходящие запросы по эндпоинту и статусу.
// m == nil — middleware прозрачен.
func Metrics(m *metrics.Metrics) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		if m == nil {
			return next
		}

		return Func(func(req *http.Request) (*http.Response, error) {
			resp, err := next.RoundTrip(req)
			if err != nil {
				m.ObserveRequest(Endpoint(req.Context()), 0)
				return nil, err
			}

			m.ObserveRequest(Endpoint(req.Context()), resp.StatusCode)
			return resp, nil
		})
	}
}
