package tracer

import (
	"testing"

	"github.com/opentracing/opentracing-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWithoutAgentKeepsNoop(t *testing.T) {
	closer, err := Setup(Config{ServiceName: "test"})
	require.NoError(t, err)
	assert.NoError(t, closer.Close())
	assert.IsType(t, opentracing.NoopTracer{}, opentracing.GlobalTracer())
}

func TestSetupWithAgent(t *testing.T) {
	defer opentracing.SetGlobalTracer(opentracing.NoopTracer{})

	closer, err := Setup(Config{ServiceName: "test", AgentHostPort: "127.0.0.1:6831", SamplerParam: 0.5})
	require.NoError(t, err)
	defer closer.Close()

	span := opentracing.GlobalTracer().StartSpan("op")
	span.Finish()
	assert.NotNil(t, span.Context())
}
