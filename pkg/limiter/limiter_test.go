package limiter

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMethodLimiter_KeyStripsQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/graph?x=1", nil)

	l := NewMethodLimiter()
	assert.Equal(t, "/api/graph", l.Key(c))
}

func TestMethodLimiter_Buckets(t *testing.T) {
	l := NewMethodLimiter().AddBuckets(BucketRule{
		Key:          "/api/graph/reindex",
		FillInterval: time.Hour,
		Capacity:     2,
		Quantum:      1,
	})

	bucket, ok := l.GetBucket("/api/graph/reindex")
	assert.True(t, ok)
	assert.Equal(t, int64(1), bucket.TakeAvailable(1))
	assert.Equal(t, int64(1), bucket.TakeAvailable(1))
	assert.Equal(t, int64(0), bucket.TakeAvailable(1))

	_, ok = l.GetBucket("/api/notes")
	assert.False(t, ok)
}
