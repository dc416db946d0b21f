package tracing

import (
	"io"

	"bantay/common"

	"github.com/opentracing/opentracing-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"
	"github.com/uber/jaeger-lib/metrics"
)

// Bootstrap configures the global tracer from JAEGER_* environment
// variables and returns the closer to flush spans on shutdown.
func Bootstrap() (io.Closer, error) {
	cfg, err := jaegercfg.FromEnv()
	if err != nil {
		return nil, err
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = common.GetServiceName()
	}

	tracer, closer, err := cfg.NewTracer(jaegercfg.Metrics(metrics.NullFactory))
	if err != nil {
		return nil, err
	}
	opentracing.SetGlobalTracer(tracer)
	return closer, nil
}
