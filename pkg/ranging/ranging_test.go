package ranging

import (
	"testing"

	"gotest.tools/assert"
)

func TestClassify(t *testing.T) {
	assert.Equal(t, Classify(50, 100, 200), Near)
	assert.Equal(t, Classify(100, 100, 200), Near)
	assert.Equal(t, Classify(150, 100, 200), Mid)
	assert.Equal(t, Classify(199, 100, 200), Mid)
	assert.Equal(t, Classify(200, 100, 200), Far)
	assert.Equal(t, Classify(500, 100, 200), Far)
}

func TestDistanceCM(t *testing.T) {
	assert.Equal(t, DistanceCM(1.5), 150)
	assert.Equal(t, DistanceCM(0.999), 99)
	assert.Equal(t, DistanceCM(0), 0)
}

func TestBandString(t *testing.T) {
	assert.Equal(t, Mid.String(), "Mid")
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("Controlee")
	assert.NilError(t, err)
	assert.Equal(t, r, Controlee)
	r, err = ParseRole(" controller ")
	assert.NilError(t, err)
	assert.Equal(t, r, Controller)
	_, err = ParseRole("observer")
	assert.ErrorContains(t, err, "unknown uwb role")
}

func TestSelectRole(t *testing.T) {
	const (
		none     uint8 = 0
		ctrlOnly uint8 = 1 << 0
		cleeOnly uint8 = 1 << 1
		both     uint8 = ctrlOnly | cleeOnly
	)
	// host prefers controlee, accessory must be controller
	assert.Equal(t, SelectRole(ctrlOnly, Controlee), Controller)
	assert.Equal(t, SelectRole(both, Controlee), Controller)
	assert.Equal(t, SelectRole(cleeOnly, Controlee), Controlee)
	// host prefers controller, accessory must be controlee
	assert.Equal(t, SelectRole(cleeOnly, Controller), Controlee)
	assert.Equal(t, SelectRole(both, Controller), Controlee)
	assert.Equal(t, SelectRole(ctrlOnly, Controller), Controller)
	assert.Equal(t, SelectRole(none, Controller), Controller)
	assert.Equal(t, SelectRole(none, Controlee), Controller)
}

func TestRoleBitmask(t *testing.T) {
	assert.Equal(t, Controller.Bitmask(), uint8(1))
	assert.Equal(t, Controlee.Bitmask(), uint8(2))
	assert.Equal(t, Controller.Opposite(), Controlee)
}

func TestSelectProfileID(t *testing.T) {
	assert.Equal(t, SelectProfileID(1<<1, 1), uint8(1))
	assert.Equal(t, SelectProfileID(1<<3|1<<1, 3), uint8(3))
	assert.Equal(t, SelectProfileID(1<<1, 3), uint8(1))
	assert.Equal(t, SelectProfileID(1<<2, 3), uint8(0))
	assert.Equal(t, SelectProfileID(0, 1), uint8(0))
	assert.Equal(t, SelectProfileID(0xFFFFFFFF, 40), uint8(1))
}
