// Package tracing builds the opentracing.Tracer used by cmd/dvs-server and
// wires request/store instrumentation around it.
//
// Grounded on the teacher's vendored github.com/oneconcern/pipelines/pkg/tracing
// (Init, NewServeMux/NewMiddleware), adapted from the teacher's log.Factory
// to the zap.Logger already threaded through pkg/casserver and pkg/ops.
package tracing

import (
	"fmt"
	"io"
	"net/http"

	nethttp "github.com/opentracing-contrib/go-stdlib/nethttp"
	opentracing "github.com/opentracing/opentracing-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"
	"github.com/uber/jaeger-client-go/rpcmetrics"
	jaegermetrics "github.com/uber/jaeger-lib/metrics"
	"go.uber.org/zap"
)

// Init builds a const-sampled Jaeger tracer reporting as serviceName to the
// jaeger-agent UDP endpoint at hostPort. Callers that don't need tracing in
// a given deployment can ignore the error and fall back to
// opentracing.NoopTracer{}, the way the teacher's cmd/datamond does.
func Init(serviceName string, logger *zap.Logger, hostPort string) (opentracing.Tracer, io.Closer, error) {
	cfg := jaegercfg.Configuration{
		ServiceName: serviceName,
		Sampler: &jaegercfg.SamplerConfig{
			Type:  "const",
			Param: 1,
		},
		Reporter: &jaegercfg.ReporterConfig{
			LocalAgentHostPort: hostPort,
		},
	}
	tracer, closer, err := cfg.NewTracer(
		jaegercfg.Logger(zapLoggerAdapter{logger: logger}),
		jaegercfg.Observer(rpcmetrics.NewObserver(jaegermetrics.NullFactory, rpcmetrics.DefaultNameNormalizer)),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing jaeger tracer: %w", err)
	}
	return tracer, closer, nil
}

type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (l zapLoggerAdapter) Error(msg string) {
	l.logger.Error(msg)
}

func (l zapLoggerAdapter) Infof(msg string, args ...interface{}) {
	l.logger.Sugar().Infof(msg, args...)
}

// Middleware wraps handler so every request opens a span named after its
// method and path, grounded on the teacher's tracing.NewMiddleware.
func Middleware(tracer opentracing.Tracer, handler http.Handler) http.Handler {
	return nethttp.Middleware(tracer, handler, nethttp.OperationNameFunc(func(r *http.Request) string {
		return "HTTP " + r.Method + " " + r.URL.Path
	}))
}
