// roundtrip — middleware для исходящих HTTP-запросов к API вендора:
// обязательные заголовки, таймаут, логирование и метрики.
//
// Каждый middleware оборачивает http.RoundTripper; цепочка собирается через Chain.
package roundtrip

import (
	"context"
	"net/http"
)

// Func — адаптер функции к http.RoundTripper.
type Func func(*http.Request) (*http.Response, error)

// RoundTrip реализует http.RoundTripper.
func (f Func) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// Middleware оборачивает транспорт.
type Middleware func(http.RoundTripper) http.RoundTripper

// Chain собирает цепочку: первый middleware — самый внешний.
// base == nil — используется http.DefaultTransport.
func Chain(base http.RoundTripper, mws ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}

	rt := base
	for i := len(mws) - 1; i >= 0; i-- {
		rt = mws[i](rt)
	}

	return rt
}

type ctxKey string

const (
	ctxRequestID ctxKey = "request_id"
	ctxEndpoint  ctxKey = "endpoint"
)

// WithRequestID кладёт идентификатор запроса в контекст (уходит в X-Request-Id).
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxRequestID, id)
}

// RequestID достаёт идентификатор запроса из контекста.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxRequestID).(string)
	return id
}

// WithEndpoint помечает запрос логическим именем эндпоинта (для логов и метрик).
func WithEndpoint(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ctxEndpoint, name)
}

// Endpoint возвращает имя эндпоинта или "-".
func Endpoint(ctx context.Context) string {
	if name, _ := ctx.Value(ctxEndpoint).(string); name != "" {
		return name
	}

	return "-"
}
