package scale

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToUnitClamp(t *testing.T) {
	t.Parallel()

	f := ToUnitClamp(40, 240)
	assert.Equal(t, 0.0, f(40))
	assert.Equal(t, 0.4, f(120))
	assert.Equal(t, 1.0, f(240))
	assert.Equal(t, 0.0, f(10))
	assert.Equal(t, 1.0, f(300))
}

func TestLinear(t *testing.T) {
	t.Parallel()

	f := Linear(0, 10, 100, 0)
	assert.Equal(t, 100.0, f(0))
	assert.Equal(t, 50.0, f(5))
	assert.Equal(t, 0.0, f(20))
	assert.Equal(t, 7.0, Linear(3, 3, 7, 9)(100))
}
