package util

import (
	"errors"
	"testing"
	"time"

	"gotest.tools/assert"
)

func TestTimeout(t *testing.T) {
	x := time.Millisecond * 50
	err := Timeout(func() error {
		time.Sleep(x * 4)
		return errors.New("should not get called")
	}, x)
	assert.ErrorContains(t, err, "Timeout")
	assert.Equal(t, err, ErrTimeout)
}

func TestTimeoutReturnsFnError(t *testing.T) {
	err := Timeout(func() error { return errors.New("boom") }, time.Second)
	assert.ErrorContains(t, err, "boom")
}

func TestCatchErrs(t *testing.T) {
	err := CatchErrs(func() error { panic("hci socket closed") })
	assert.ErrorContains(t, err, "hci socket closed")

	err = CatchErrs(func() error { panic(errors.New("bad handle")) })
	assert.ErrorContains(t, err, "bad handle")

	assert.NilError(t, CatchErrs(func() error { return nil }))
}

func TestNormalizeMAC(t *testing.T) {
	assert.Equal(t, NormalizeMAC(" aa:bb:cc:dd:ee:ff "), "AA:BB:CC:DD:EE:FF")
	assert.Assert(t, AddrEqualAddr("aa:bb:cc:dd:ee:ff", "AA:BB:CC:DD:EE:FF"))
}
