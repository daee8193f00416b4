package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRuntime() (*BasicRuntime, *byteFIFO) {
	out := &byteFIFO{}
	return NewBasicRuntime(out, nil), out
}

// drainString empties the output FIFO as text.
func drainString(out *byteFIFO) string {
	return string(out.Drain())
}

func TestImmediateLetAndPrint(t *testing.T) {
	rt, out := newTestRuntime()

	rt.ExecuteLine("LET A=(2+3)*4")
	assert.Equal(t, numValue(20), rt.vars["A"])
	out.Reset()

	rt.ExecuteLine("PRINT A")
	assert.Contains(t, drainString(out), "20\n")
}

func TestImmediateImplicitLet(t *testing.T) {
	rt, _ := newTestRuntime()
	rt.ExecuteLine("A=7")
	assert.Equal(t, numValue(7), rt.vars["A"])
}

func TestComparisonYieldsMinusOne(t *testing.T) {
	rt, _ := newTestRuntime()
	rt.ExecuteLine("A=12")
	rt.ExecuteLine("B=A>=10")
	rt.ExecuteLine("C=A>=100")
	assert.Equal(t, numValue(-1), rt.vars["B"])
	assert.Equal(t, numValue(0), rt.vars["C"])
}

func TestInlineIfElse(t *testing.T) {
	rt, out := newTestRuntime()
	rt.ExecuteLine("A=0")
	out.Reset()

	rt.ExecuteLine("IF A THEN PRINT 1 ELSE PRINT 2")
	text := drainString(out)
	assert.Contains(t, text, "2\n")
	assert.NotContains(t, text, "1\n")
}

func TestHexLiteral(t *testing.T) {
	rt, _ := newTestRuntime()
	rt.ExecuteLine("A=&H1F")
	assert.Equal(t, numValue(31), rt.vars["A"])
}

func TestStringTyping(t *testing.T) {
	rt, out := newTestRuntime()
	rt.ExecuteLine(`A$="HI"`)
	assert.Equal(t, strValue("HI"), rt.vars["A$"])

	out.Reset()
	rt.ExecuteLine(`A$=5`)
	assert.Contains(t, drainString(out), "(E04)")
}

func TestIntegerDivisionTruncates(t *testing.T) {
	rt, _ := newTestRuntime()
	rt.ExecuteLine("A=7/2")
	rt.ExecuteLine("B=-7/2")
	rt.ExecuteLine("C=7 MOD 3")
	assert.Equal(t, numValue(3), rt.vars["A"])
	assert.Equal(t, numValue(-3), rt.vars["B"])
	assert.Equal(t, numValue(1), rt.vars["C"])
}

func TestStoreAndListProgram(t *testing.T) {
	rt, out := newTestRuntime()
	rt.ExecuteLine("20 PRINT 2")
	rt.ExecuteLine("10 PRINT 1")
	out.Reset()

	rt.ExecuteLine("LIST")
	text := drainString(out)
	idx1 := strings.Index(text, "10 PRINT 1")
	idx2 := strings.Index(text, "20 PRINT 2")
	require.True(t, idx1 >= 0 && idx2 >= 0, "LIST output: %q", text)
	assert.Less(t, idx1, idx2, "LIST must order numerically")
}

func TestDeleteLineByEmptyBody(t *testing.T) {
	rt, _ := newTestRuntime()
	rt.ExecuteLine("10 PRINT 1")
	rt.ExecuteLine("10")
	assert.Empty(t, rt.program)
}

func TestBadLinePrefix(t *testing.T) {
	rt, out := newTestRuntime()
	rt.ExecuteLine("10X PRINT 1")
	assert.Contains(t, drainString(out), "(E02)")
}

// The canonical pump program: counts 1..10 with a WAIT in the loop, then
// finishes normally.
func TestProgramPumpWithWait(t *testing.T) {
	rt, out := newTestRuntime()
	for _, line := range []string{
		"10 A=1",
		"20 PRINT A",
		"30 A=A+1",
		"40 WAIT 64",
		"50 IF A>10 THEN 70",
		"60 GOTO 20",
		`70 PRINT "owari"`,
		"80 END",
	} {
		rt.ExecuteLine(line)
	}
	out.Reset()
	rt.ExecuteLine("RUN")

	now := int64(0)
	for i := 0; i < 500 && rt.IsProgramRunning(); i++ {
		rt.Pump(now)
		now += 1100
	}

	require.False(t, rt.IsProgramRunning())
	text := drainString(out)
	for i := 1; i <= 10; i++ {
		assert.Contains(t, text, "\n") // every PRINT ends the line
	}
	assert.Contains(t, text, "1\n")
	assert.Contains(t, text, "10\n")
	assert.Contains(t, text, "owari\n")
	assert.Contains(t, text, "OK\n")
}

func TestWaitSuspendsUntilWakeTime(t *testing.T) {
	rt, _ := newTestRuntime()
	rt.ExecuteLine("10 WAIT 64")
	rt.ExecuteLine("20 A=5")
	rt.ExecuteLine("RUN")

	rt.Pump(0)
	assert.NotEqual(t, numValue(5), rt.vars["A"], "WAIT must hold the program")
	rt.Pump(500)
	assert.NotEqual(t, numValue(5), rt.vars["A"], "wake time not yet reached")
	rt.Pump(1001)
	assert.Equal(t, numValue(5), rt.vars["A"])
}

func TestWaitResetsRunawayCounter(t *testing.T) {
	rt, _ := newTestRuntime()
	rt.MaxSteps = 50
	rt.ExecuteLine("10 A=A+1")
	rt.ExecuteLine("20 WAIT 1")
	rt.ExecuteLine("30 IF A<20 THEN 10")
	rt.ExecuteLine("40 END")
	rt.ExecuteLine("RUN")

	now := int64(0)
	for i := 0; i < 300 && rt.IsProgramRunning(); i++ {
		rt.Pump(now)
		now += 100
	}
	assert.Equal(t, numValue(20), rt.vars["A"], "WAIT loops must not trip the guard")
}

func TestRunawayGuard(t *testing.T) {
	rt, out := newTestRuntime()
	rt.MaxSteps = 100
	rt.ExecuteLine("10 GOTO 10")
	out.Reset()
	rt.ExecuteLine("RUN")

	rt.Pump(0)

	assert.False(t, rt.IsProgramRunning())
	assert.Contains(t, drainString(out), "(E07)")
}

func TestStopAndCont(t *testing.T) {
	rt, out := newTestRuntime()
	rt.ExecuteLine("10 A=1")
	rt.ExecuteLine("20 STOP")
	rt.ExecuteLine("30 A=5")
	out.Reset()
	rt.ExecuteLine("RUN")

	rt.Pump(0)
	assert.True(t, rt.IsStopped())
	assert.Equal(t, numValue(1), rt.vars["A"])
	assert.Contains(t, drainString(out), "BREAK")

	rt.ExecuteLine("CONT")
	rt.Pump(1)
	assert.False(t, rt.IsProgramRunning())
	assert.Equal(t, numValue(5), rt.vars["A"])
}

func TestInputSuspendsProgram(t *testing.T) {
	rt, out := newTestRuntime()
	rt.ExecuteLine("10 INPUT A,B$")
	rt.ExecuteLine("20 PRINT A")
	rt.ExecuteLine("RUN")

	rt.Pump(0)
	assert.True(t, rt.IsAwaitingInput())
	out.Reset()

	rt.ProvideInput(`42,"HI"`)
	rt.Pump(1)

	assert.False(t, rt.IsProgramRunning())
	assert.Equal(t, numValue(42), rt.vars["A"])
	assert.Equal(t, strValue("HI"), rt.vars["B$"])
	assert.Contains(t, drainString(out), "42\n")
}

func TestImmediateInputRaisesE08(t *testing.T) {
	rt, out := newTestRuntime()
	rt.ExecuteLine("INPUT A")
	assert.Contains(t, drainString(out), "(E08)")
}

func TestGotoMissingLine(t *testing.T) {
	rt, out := newTestRuntime()
	rt.ExecuteLine("GOTO 999")
	assert.Contains(t, drainString(out), "NO LINE 999 (E06)")
}

func TestReturnWithoutGosub(t *testing.T) {
	rt, out := newTestRuntime()
	rt.ExecuteLine("10 RETURN")
	out.Reset()
	rt.ExecuteLine("RUN")
	rt.Pump(0)
	assert.Contains(t, drainString(out), "(E09)")
}

func TestGosubReturn(t *testing.T) {
	rt, _ := newTestRuntime()
	rt.ExecuteLine("10 GOSUB 100")
	rt.ExecuteLine("20 B=2")
	rt.ExecuteLine("30 END")
	rt.ExecuteLine("100 A=1")
	rt.ExecuteLine("110 RETURN")
	rt.ExecuteLine("RUN")
	rt.Pump(0)

	assert.Equal(t, numValue(1), rt.vars["A"])
	assert.Equal(t, numValue(2), rt.vars["B"])
}

func TestForNextLoop(t *testing.T) {
	rt, _ := newTestRuntime()
	rt.ExecuteLine("10 S=0")
	rt.ExecuteLine("20 FOR I=1 TO 5")
	rt.ExecuteLine("30 S=S+I")
	rt.ExecuteLine("40 NEXT I")
	rt.ExecuteLine("RUN")
	rt.Pump(0)

	assert.Equal(t, numValue(15), rt.vars["S"])
	assert.Equal(t, numValue(6), rt.vars["I"])
}

func TestForNegativeStep(t *testing.T) {
	rt, _ := newTestRuntime()
	rt.ExecuteLine("10 S=0")
	rt.ExecuteLine("20 FOR I=5 TO 1 STEP -2")
	rt.ExecuteLine("30 S=S+I")
	rt.ExecuteLine("40 NEXT")
	rt.ExecuteLine("RUN")
	rt.Pump(0)

	assert.Equal(t, numValue(9), rt.vars["S"]) // 5+3+1
}

func TestForStepZeroHitsGuard(t *testing.T) {
	rt, _ := newTestRuntime()
	rt.MaxSteps = 200
	rt.ExecuteLine("10 FOR I=1 TO 2 STEP 0")
	rt.ExecuteLine("20 NEXT")
	rt.ExecuteLine("RUN")
	rt.Pump(0)
	assert.False(t, rt.IsProgramRunning(), "step 0 loops forever until the guard fires")
}

func TestDataReadCoercion(t *testing.T) {
	rt, _ := newTestRuntime()
	rt.ExecuteLine(`10 DATA 42,"73",HELLO`)
	rt.ExecuteLine("20 READ A,B,C$")
	rt.ExecuteLine("RUN")
	rt.Pump(0)

	assert.Equal(t, numValue(42), rt.vars["A"])
	assert.Equal(t, numValue(73), rt.vars["B"], "string datum coerces to its number")
	assert.Equal(t, strValue("HELLO"), rt.vars["C$"])
}

func TestRestoreSeeksLine(t *testing.T) {
	rt, _ := newTestRuntime()
	rt.ExecuteLine("10 DATA 1")
	rt.ExecuteLine("20 DATA 2")
	rt.ExecuteLine("30 READ A")
	rt.ExecuteLine("40 RESTORE 20")
	rt.ExecuteLine("50 READ B")
	rt.ExecuteLine("RUN")
	rt.Pump(0)

	assert.Equal(t, numValue(1), rt.vars["A"])
	assert.Equal(t, numValue(2), rt.vars["B"])
}

func TestOnGotoSelection(t *testing.T) {
	rt, _ := newTestRuntime()
	rt.ExecuteLine("10 X=2")
	rt.ExecuteLine("20 ON X GOTO 100,200")
	rt.ExecuteLine("30 A=99")
	rt.ExecuteLine("40 END")
	rt.ExecuteLine("100 A=1")
	rt.ExecuteLine("110 END")
	rt.ExecuteLine("200 A=2")
	rt.ExecuteLine("210 END")
	rt.ExecuteLine("RUN")
	rt.Pump(0)
	assert.Equal(t, numValue(2), rt.vars["A"])
}

func TestOnGotoOutOfRangeIsNoop(t *testing.T) {
	rt, _ := newTestRuntime()
	rt.ExecuteLine("10 X=7")
	rt.ExecuteLine("20 ON X GOTO 100")
	rt.ExecuteLine("30 A=99")
	rt.ExecuteLine("100 A=1")
	rt.ExecuteLine("RUN")
	rt.Pump(0)
	// Falls through line 30 and then into 100.
	assert.Equal(t, numValue(1), rt.vars["A"])
}

func TestLabelTargets(t *testing.T) {
	rt, _ := newTestRuntime()
	rt.ExecuteLine("10 GOTO *DONE")
	rt.ExecuteLine("20 A=99")
	rt.ExecuteLine("30 *DONE: A=1")
	rt.ExecuteLine("RUN")
	rt.Pump(0)
	assert.Equal(t, numValue(1), rt.vars["A"])
}

func TestRepeatUntil(t *testing.T) {
	rt, _ := newTestRuntime()
	rt.ExecuteLine("10 A=0")
	rt.ExecuteLine("20 REPEAT")
	rt.ExecuteLine("30 A=A+1")
	rt.ExecuteLine("40 UNTIL A>=3")
	rt.ExecuteLine("RUN")
	rt.Pump(0)
	assert.Equal(t, numValue(3), rt.vars["A"])
}

func TestWhileWend(t *testing.T) {
	rt, _ := newTestRuntime()
	rt.ExecuteLine("10 A=0")
	rt.ExecuteLine("20 WHILE A<4")
	rt.ExecuteLine("30 A=A+1")
	rt.ExecuteLine("40 WEND")
	rt.ExecuteLine("50 B=1")
	rt.ExecuteLine("RUN")
	rt.Pump(0)
	assert.Equal(t, numValue(4), rt.vars["A"])
	assert.Equal(t, numValue(1), rt.vars["B"])
}

func TestWhileFalseSkipsBody(t *testing.T) {
	rt, _ := newTestRuntime()
	rt.ExecuteLine("10 WHILE 0")
	rt.ExecuteLine("20 A=99")
	rt.ExecuteLine("30 WEND")
	rt.ExecuteLine("40 B=1")
	rt.ExecuteLine("RUN")
	rt.Pump(0)
	assert.Equal(t, 0, rt.getVar("A").Num)
	assert.Equal(t, numValue(1), rt.vars["B"])
}

func TestDimAndArrayAccess(t *testing.T) {
	rt, _ := newTestRuntime()
	rt.ExecuteLine("10 DIM A(3)")
	rt.ExecuteLine("20 A(2)=7")
	rt.ExecuteLine("30 B=A(2)")
	rt.ExecuteLine("RUN")
	rt.Pump(0)
	assert.Equal(t, numValue(7), rt.vars["B"])

	arr := rt.arrays["A"]
	require.NotNil(t, arr)
	assert.Len(t, arr.Nums, 4, "dimension bound is inclusive")
}

func TestDimStringArrayMaxLen(t *testing.T) {
	rt, _ := newTestRuntime()
	rt.ExecuteLine("10 DIM A$(2)*3")
	rt.ExecuteLine(`20 A$(0)="LONGTEXT"`)
	rt.ExecuteLine("RUN")
	rt.Pump(0)
	assert.Equal(t, "LON", rt.arrays["A$"].Strs[0])
}

func TestNewClearsEverything(t *testing.T) {
	rt, _ := newTestRuntime()
	rt.ExecuteLine("10 PRINT 1")
	rt.ExecuteLine("A=5")
	rt.ExecuteLine("NEW")
	assert.Empty(t, rt.program)
	assert.Empty(t, rt.vars)
}

func TestAutoMode(t *testing.T) {
	rt, _ := newTestRuntime()
	rt.ExecuteLine("AUTO 100,10")
	rt.ExecuteLine("A=1")
	rt.ExecuteLine("B=2")
	rt.ExecuteLine(".")

	assert.False(t, rt.autoMode)
	assert.Equal(t, "A=1", rt.program[100])
	assert.Equal(t, "B=2", rt.program[110])
}

func TestPrintColumnsAndSemicolons(t *testing.T) {
	rt, out := newTestRuntime()
	rt.ExecuteLine("A=1")
	rt.ExecuteLine("B=2")
	out.Reset()
	rt.ExecuteLine("PRINT A;B")
	assert.Contains(t, drainString(out), "12\n")

	rt.ExecuteLine("PRINT A,B")
	text := drainString(out)
	assert.Contains(t, text, "1           2\n")
}

func TestPrintTrailingSeparatorSuppressesNewline(t *testing.T) {
	rt, out := newTestRuntime()
	out.Reset()
	rt.ExecuteLine("PRINT 5;")
	text := drainString(out)
	assert.True(t, strings.HasPrefix(text, "5"))
	assert.False(t, strings.HasPrefix(text, "5\n"))
}

func TestCancelRunToken(t *testing.T) {
	rt, _ := newTestRuntime()
	rt.ExecuteLine("10 WAIT 64")
	rt.ExecuteLine("20 A=5")
	rt.ExecuteLine("RUN")
	rt.Pump(0)

	rt.CancelRun()
	rt.Pump(5000)
	assert.False(t, rt.IsProgramRunning())
	assert.NotEqual(t, numValue(5), rt.vars["A"])
}

func TestStringFunctions(t *testing.T) {
	rt, _ := newTestRuntime()
	rt.ExecuteLine(`A$="HELLO"`)
	rt.ExecuteLine("L=LEN(A$)")
	rt.ExecuteLine(`B$=MID$(A$,2,3)`)
	rt.ExecuteLine(`C$=CHR$(65)`)
	rt.ExecuteLine(`V=VAL("123")`)
	assert.Equal(t, numValue(5), rt.vars["L"])
	assert.Equal(t, strValue("ELL"), rt.vars["B$"])
	assert.Equal(t, strValue("A"), rt.vars["C$"])
	assert.Equal(t, numValue(123), rt.vars["V"])
}

func TestNotOperator(t *testing.T) {
	rt, _ := newTestRuntime()
	rt.ExecuteLine("A=NOT 0")
	rt.ExecuteLine("B=NOT -1")
	assert.Equal(t, numValue(-1), rt.vars["A"])
	assert.Equal(t, numValue(0), rt.vars["B"])
}
