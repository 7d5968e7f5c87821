package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveReconcile(t *testing.T) {
	ins := testutil.ToFloat64(EdgesInserted)
	del := testutil.ToFloat64(EdgesDeleted)
	ok := testutil.ToFloat64(Reconciles.WithLabelValues("ok"))
	failed := testutil.ToFloat64(Reconciles.WithLabelValues("error"))

	ObserveReconcile(3, 1, 2, 4, nil)
	ObserveReconcile(5, 5, 5, 5, errors.New("boom"))

	assert.Equal(t, ins+3, testutil.ToFloat64(EdgesInserted))
	assert.Equal(t, del+1, testutil.ToFloat64(EdgesDeleted))
	assert.Equal(t, ok+1, testutil.ToFloat64(Reconciles.WithLabelValues("ok")))
	assert.Equal(t, failed+1, testutil.ToFloat64(Reconciles.WithLabelValues("error")))
}
