package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	m1 := NewMachine()
	m1.Reset(true)
	m1.ExecuteLine("10 A=A+1")
	m1.ExecuteLine("20 PRINT A")
	m1.ExecuteLine("A=41")
	m1.ExecuteLine(`N$="G815"`)
	m1.ExecuteLine("DIM V(3)")
	m1.ExecuteLine("V(2)=9")

	snap := m1.GetSnapshot()
	data, err := MarshalSnapshot(snap)
	require.NoError(t, err)

	restored, err := UnmarshalSnapshot(data)
	require.NoError(t, err)

	m2 := NewMachine()
	m2.Reset(true)
	require.NoError(t, m2.LoadSnapshot(restored))

	rt1, rt2 := m1.Runtime(), m2.Runtime()
	assert.Equal(t, rt1.vars["A"], rt2.vars["A"])
	assert.Equal(t, rt1.vars["N$"], rt2.vars["N$"])
	assert.Equal(t, rt1.program, rt2.program)
	assert.Equal(t, rt1.arrays["V"].Nums, rt2.arrays["V"].Nums)

	// Identical behavior on subsequent inputs.
	m1.DrainOutput()
	m2.DrainOutput()
	m1.ExecuteLine("PRINT A+1")
	m2.ExecuteLine("PRINT A+1")
	assert.Equal(t, string(m1.DrainOutput()), string(m2.DrainOutput()))
}

func TestSnapshotCarriesOutputFifo(t *testing.T) {
	m1 := NewMachine()
	m1.Reset(true)
	m1.ExecuteLine("PRINT 7")

	snap := m1.GetSnapshot()
	assert.Contains(t, string(snap.Output), "7\n")

	m2 := NewMachine()
	m2.Reset(true)
	require.NoError(t, m2.LoadSnapshot(snap))
	assert.Contains(t, string(m2.DrainOutput()), "7\n")
}

func TestSnapshotWaitingInput(t *testing.T) {
	m1 := NewMachine()
	m1.Reset(true)
	m1.ExecuteLine("10 INPUT A")
	m1.ExecuteLine("20 B=A*2")
	m1.ExecuteLine("RUN")
	m1.PumpBasic(0)
	require.True(t, m1.Runtime().IsAwaitingInput())

	snap := m1.GetSnapshot()
	require.NotNil(t, snap.WaitingInput)

	m2 := NewMachine()
	m2.Reset(true)
	require.NoError(t, m2.LoadSnapshot(snap))
	require.True(t, m2.Runtime().IsAwaitingInput())

	m2.ProvideInput("21")
	m2.PumpBasic(1)
	assert.Equal(t, numValue(21), m2.Runtime().vars["A"])
	assert.Equal(t, numValue(42), m2.Runtime().vars["B"])
}

func TestSnapshotProfileTag(t *testing.T) {
	m := NewMachine()
	snap := m.GetSnapshot()
	assert.Equal(t, "pc-g815", snap.Profile)
}
