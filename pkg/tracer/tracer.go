// Package tracer installs the process wide opentracing tracer
// Package tracer 初始化全局 opentracing 追踪器
package tracer

import (
	"io"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/uber/jaeger-client-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"
)

// Config jaeger reporter configuration
// Config jaeger 上报配置
type Config struct {
	ServiceName string
	// AgentHostPort jaeger agent address, empty keeps the noop tracer
	// AgentHostPort jaeger agent 地址，为空时使用空追踪器
	AgentHostPort string
	// SamplerParam fraction of traces kept, 1 keeps all
	// SamplerParam 采样比例，1 表示全部采样
	SamplerParam float64
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup sets opentracing.GlobalTracer from cfg and returns the closer that flushes it.
// Setup 根据配置设置全局追踪器，返回用于刷新上报的 closer
func Setup(cfg Config) (io.Closer, error) {
	if cfg.AgentHostPort == "" {
		opentracing.SetGlobalTracer(opentracing.NoopTracer{})
		return nopCloser{}, nil
	}

	samplerType := jaeger.SamplerTypeConst
	param := 1.0
	if cfg.SamplerParam > 0 && cfg.SamplerParam < 1 {
		samplerType = jaeger.SamplerTypeProbabilistic
		param = cfg.SamplerParam
	}

	jc := jaegercfg.Configuration{
		ServiceName: cfg.ServiceName,
		Sampler: &jaegercfg.SamplerConfig{
			Type:  samplerType,
			Param: param,
		},
		Reporter: &jaegercfg.ReporterConfig{
			LocalAgentHostPort:  cfg.AgentHostPort,
			BufferFlushInterval: time.Second,
		},
	}

	t, closer, err := jc.NewTracer(jaegercfg.Logger(jaeger.NullLogger))
	if err != nil {
		return nil, errors.Wrap(err, "create jaeger tracer failed")
	}
	opentracing.SetGlobalTracer(t)
	return closer, nil
}
