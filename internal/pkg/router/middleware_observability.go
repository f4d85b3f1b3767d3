package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/levelup/internal/pkg/config"
	"github.com/shandysiswandi/levelup/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

type httpMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	streams  metric.Int64UpDownCounter
}

func newHTTPMetrics(ins instrument.Instrumentation) httpMetrics {
	meter := ins.Meter("http.server")

	var m httpMetrics
	var err error
	if m.requests, err = meter.Int64Counter("http.server.requests",
		metric.WithDescription("Number of HTTP requests received")); err != nil {
		slog.Error("failed to create http request counter", "error", err)
	}
	if m.duration, err = meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration in milliseconds"), metric.WithUnit("ms")); err != nil {
		slog.Error("failed to create http duration histogram", "error", err)
	}
	if m.streams, err = meter.Int64UpDownCounter("http.server.open_streams",
		metric.WithDescription("SSE and websocket requests currently open")); err != nil {
		slog.Error("failed to create http open streams counter", "error", err)
	}
	return m
}

// middlewareObservability traces, meters and logs every request. Routes for which
// isStream reports true are logged when opened and closed, without bodies.
func middlewareObservability(cfg config.Config, ins instrument.Instrumentation, isStream func(route string) bool) Middleware {
	maskKeys := instrument.MaskKeys(cfg.GetArray("instrument.log_mask_fields"))
	tracer := ins.Tracer("http.server")
	hm := newHTTPMetrics(ins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			stream := isStream(route)
			start := time.Now()

			ctx, span := tracer.Start(r.Context(), r.Method+" "+route, trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
			))
			defer span.End()

			uri := redactURI(r.URL, maskKeys)
			rec := &recorder{ResponseWriter: w}
			if stream {
				slog.InfoContext(ctx, "stream opened", "method", r.Method, "path", route, "uri", uri,
					"headers", maskHeaders(r.Header, maskKeys))
				if hm.streams != nil {
					hm.streams.Add(ctx, 1, metric.WithAttributes(semconv.HTTPRouteKey.String(route)))
					defer hm.streams.Add(context.WithoutCancel(ctx), -1, metric.WithAttributes(semconv.HTTPRouteKey.String(route)))
				}
			} else {
				rec.body = &bytes.Buffer{}
				slog.InfoContext(ctx, "request received", "method", r.Method, "path", route, "uri", uri,
					"headers", maskHeaders(r.Header, maskKeys),
					"body", loggableBody(r.Header.Get("Content-Type"), peekBody(r), maskKeys))
			}

			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.statusCode()
			attrs := []attribute.KeyValue{
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPResponseStatusCodeKey.Int(status),
			}
			endSpan(span, rec, status, attrs)
			span.SetAttributes(
				semconv.NetworkProtocolVersionKey.String(r.Proto),
				semconv.ServerAddressKey.String(r.Host),
				attribute.String("http.user_agent", r.UserAgent()),
				attribute.Int("http.response_content_length", rec.bytes),
			)

			// the request context is done once a stream client leaves
			mctx := context.WithoutCancel(ctx)
			if hm.requests != nil {
				hm.requests.Add(mctx, 1, metric.WithAttributes(attrs...))
			}
			elapsed := time.Since(start)
			if hm.duration != nil && !stream {
				hm.duration.Record(mctx, float64(elapsed.Milliseconds()), metric.WithAttributes(attrs...))
			}

			if stream {
				slog.InfoContext(mctx, "stream closed", "method", r.Method, "path", route, "status", status,
					"hijacked", rec.hijacked, "bytes", rec.bytes, "duration_ms", elapsed.Milliseconds())
				return
			}
			slog.InfoContext(mctx, "response sent", "method", r.Method, "path", route, "uri", uri,
				"status", status, "bytes", rec.bytes, "latency_ms", elapsed.Milliseconds(),
				"body", responseBody(rec, maskKeys))
		})
	}
}

func endSpan(span trace.Span, rec *recorder, status int, attrs []attribute.KeyValue) {
	span.SetAttributes(attrs...)
	if rec.err != nil {
		span.RecordError(rec.err)
	}
	switch {
	case status < 500:
		span.SetStatus(codes.Ok, "")
	case rec.err != nil:
		span.SetStatus(codes.Error, rec.err.Error())
	default:
		span.SetStatus(codes.Error, http.StatusText(status))
	}
}

func matchedRoutePath(r *http.Request) string {
	if pattern := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); pattern != "" {
		return pattern
	}
	return r.URL.Path
}

func maskHeaders(headers http.Header, maskKeys map[string]struct{}) http.Header {
	if len(maskKeys) == 0 {
		return headers
	}

	out := headers.Clone()
	for key := range out {
		if _, found := maskKeys[strings.ToLower(key)]; found {
			out.Set(key, "***")
		}
	}
	return out
}

// redactURI masks query values whose keys are masked, such as the access_token the
// socket handshake may carry.
func redactURI(u *url.URL, maskKeys map[string]struct{}) string {
	if u.RawQuery == "" || len(maskKeys) == 0 {
		return u.RequestURI()
	}

	q := u.Query()
	for key := range q {
		if _, found := maskKeys[strings.ToLower(key)]; found {
			q.Set(key, "***")
		}
	}
	return u.EscapedPath() + "?" + q.Encode()
}

// peekBody reads up to the logging limit and leaves r.Body readable from the start.
func peekBody(r *http.Request) []byte {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	head, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBodyBytes+1)) //nolint:errcheck // logging only
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(head), r.Body))
	return head[:min(len(head), maxLoggedBodyBytes)]
}

func loggableBody(contentType string, body []byte, maskKeys map[string]struct{}) any {
	if len(body) == 0 {
		return nil
	}

	var v any
	if err := json.Unmarshal(body, &v); err == nil {
		return instrument.MaskData(v, maskKeys)
	}

	if strings.HasPrefix(strings.ToLower(contentType), "application/x-www-form-urlencoded") {
		if values, err := url.ParseQuery(string(body)); err == nil {
			return maskForm(values, maskKeys)
		}
	}

	if !utf8.Valid(body) {
		return "<binary body omitted>"
	}
	return string(body)
}

func maskForm(values url.Values, maskKeys map[string]struct{}) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		switch _, masked := maskKeys[strings.ToLower(k)]; {
		case masked:
			out[k] = "***"
		case len(v) == 1:
			out[k] = v[0]
		default:
			out[k] = v
		}
	}
	return out
}

func responseBody(rec *recorder, maskKeys map[string]struct{}) any {
	if rec.body == nil || rec.body.Len() == 0 {
		return nil
	}

	body := loggableBody("", rec.body.Bytes(), maskKeys)
	if rec.capped {
		return map[string]any{"body": body, "truncated": true}
	}
	return body
}
