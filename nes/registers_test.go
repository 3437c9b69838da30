package nes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterWriteUpdatesZN(t *testing.T) {
	for _, reg := range []Register{A, X, Y} {
		var r Registers

		r.Write(reg, 0x00)
		assert.True(t, r.Flag(zero))
		assert.False(t, r.Flag(negative))

		r.Write(reg, 0x80)
		assert.False(t, r.Flag(zero))
		assert.True(t, r.Flag(negative))

		r.Write(reg, 0x01)
		assert.False(t, r.Flag(zero))
		assert.False(t, r.Flag(negative))
	}
}

func TestStackPointerWriteIsRaw(t *testing.T) {
	var r Registers
	r.Write(A, 0x01) // Z and N clear

	r.Write(SP, 0x00)
	assert.False(t, r.Flag(zero), "SP writes must not touch Z")
	assert.Equal(t, byte(0x00), r.Read(SP))

	r.Write(SP, 0x80)
	assert.False(t, r.Flag(negative), "SP writes must not touch N")
}

func TestStatusWriteMask(t *testing.T) {
	var r Registers

	r.Write(P, 0xFF)
	assert.Equal(t, byte(0xEF), r.Read(P), "B is dropped")

	r.Write(P, 0x00)
	assert.Equal(t, byte(0x20), r.Read(P), "always-one is forced")
}

func TestUpdateCV(t *testing.T) {
	tests := []struct {
		a, b  byte
		sum   uint16
		wantC bool
		wantV bool
	}{
		{0x00, 0x00, 0x0000, false, false},
		{0x50, 0x50, 0x00A0, false, true},  // positive + positive = negative
		{0xD0, 0x90, 0x0160, true, true},   // negative + negative = positive
		{0x50, 0x90, 0x00E0, false, false}, // mixed signs never overflow
		{0xFF, 0x01, 0x0100, true, false},
		{0x80, 0x80, 0x0100, true, true},
		{0x7F, 0x01, 0x0080, false, true},
	}

	for _, tc := range tests {
		var r Registers
		r.UpdateCV(tc.a, tc.b, tc.sum)
		assert.Equal(t, tc.wantC, r.Flag(carry), "C for %02X+%02X", tc.a, tc.b)
		assert.Equal(t, tc.wantV, r.Flag(overflow), "V for %02X+%02X", tc.a, tc.b)
	}
}

func TestPCWraps(t *testing.T) {
	var r Registers
	r.SetPC(0xFFFF)
	r.SetPC(r.PC() + 1)
	assert.Equal(t, uint16(0x0000), r.PC())
}
