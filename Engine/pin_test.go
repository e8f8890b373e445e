package Engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typePin(d *PinDialog, pin string) {
	for i := 0; i < len(pin); i++ {
		d.Input(pin[i])
	}
}

func TestPinDialogHappyPath(t *testing.T) {
	d := NewPinDialog(8)
	assert.Equal(t, PinIdle, d.Phase())

	d.Open()
	assert.Equal(t, PinEntering, d.Phase())

	typePin(d, "4321")
	pin, ok := d.Submit()
	require.True(t, ok)
	assert.Equal(t, "4321", pin)
	assert.Equal(t, PinSubmitting, d.Phase())

	d.Accept()
	assert.Equal(t, PinIdle, d.Phase())
	assert.Empty(t, d.Entered())
}

func TestPinDialogEmptySubmitStaysEntering(t *testing.T) {
	d := NewPinDialog(8)
	d.Open()

	_, ok := d.Submit()
	assert.False(t, ok)
	assert.Equal(t, PinEntering, d.Phase())
	assert.NotEmpty(t, d.Error())
}

// A wrong PIN keeps the dialog open with cleared digits; the retry on the
// same dialog instance can then succeed.
func TestPinDialogRejectThenRetry(t *testing.T) {
	d := NewPinDialog(8)
	d.Open()

	typePin(d, "9999")
	_, ok := d.Submit()
	require.True(t, ok)

	d.Reject("Incorrect PIN")
	assert.Equal(t, PinEntering, d.Phase())
	assert.Empty(t, d.Entered())
	assert.Equal(t, "Incorrect PIN", d.Error())

	typePin(d, "4321")
	pin, ok := d.Submit()
	require.True(t, ok)
	assert.Equal(t, "4321", pin)

	d.Accept()
	assert.Equal(t, PinIdle, d.Phase())
}

func TestPinDialogInputRules(t *testing.T) {
	d := NewPinDialog(4)
	d.Open()

	typePin(d, "12a34")
	assert.Equal(t, "1234", d.Entered()) // non-digits ignored

	d.Input('5')
	assert.Equal(t, "1234", d.Entered()) // length capped

	d.Backspace()
	assert.Equal(t, "123", d.Entered())

	d.Clear()
	assert.Empty(t, d.Entered())
}

func TestPinDialogIgnoresInputOutsideEntering(t *testing.T) {
	d := NewPinDialog(8)
	d.Input('1')
	assert.Empty(t, d.Entered())

	d.Open()
	typePin(d, "11")
	_, ok := d.Submit()
	require.True(t, ok)
	d.Input('2')
	assert.Equal(t, "11", d.Entered())
}

func TestPinDialogCancelFromAnyPhase(t *testing.T) {
	d := NewPinDialog(8)
	d.Open()
	typePin(d, "987")
	d.Cancel()
	assert.Equal(t, PinIdle, d.Phase())
	assert.Empty(t, d.Entered())

	d.Open()
	typePin(d, "12")
	_, ok := d.Submit()
	require.True(t, ok)
	d.Cancel()
	assert.Equal(t, PinIdle, d.Phase())
	assert.Empty(t, d.Entered())
}
