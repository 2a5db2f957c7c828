package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPacketsBuiltTotal(t *testing.T) {
	before := testutil.ToFloat64(PacketsBuiltTotal.WithLabelValues("dim"))
	PacketsBuiltTotal.WithLabelValues("dim").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(PacketsBuiltTotal.WithLabelValues("dim")))
}

func TestRadioErrorsByOp(t *testing.T) {
	before := testutil.ToFloat64(RadioErrorsTotal.WithLabelValues("start"))
	RadioErrorsTotal.WithLabelValues("start").Add(2)
	assert.Equal(t, before+2, testutil.ToFloat64(RadioErrorsTotal.WithLabelValues("start")))
	assert.GreaterOrEqual(t, testutil.CollectAndCount(RadioErrorsTotal), 1)
}
