package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mranakol/avrstack/pkg/avr"
)

func TestDefaultExcludesDelayRoutines(t *testing.T) {
	p := Default()
	for _, name := range []string{"delay_ms", "delay_us", "_delay_ms", "_delay_us"} {
		assert.True(t, p.ExcludedFromArrayDispatch(name), "expected %q to be excluded by default", name)
	}
	assert.False(t, p.ExcludedFromArrayDispatch("handler_table_entry"))
}

func TestLoadStarlarkMergesExcludedFunctions(t *testing.T) {
	p := Default()
	src := []byte(`excluded_functions = ["vTaskDelay", "sleep_ms"]`)
	require.NoError(t, p.LoadStarlark("policy.star", src))
	assert.True(t, p.ExcludedFromArrayDispatch("vTaskDelay"))
	assert.True(t, p.ExcludedFromArrayDispatch("delay_ms"), "builtin exclusions should survive loading a script")
}

func TestLoadStarlarkNoGlobalIsNoOp(t *testing.T) {
	p := Default()
	src := []byte(`other_thing = 1`)
	require.NoError(t, p.LoadStarlark("policy.star", src))
	assert.False(t, p.ExcludedFromArrayDispatch("other_thing"))
}

func TestLoadStarlarkRejectsNonListGlobal(t *testing.T) {
	p := Default()
	src := []byte(`excluded_functions = "not a list"`)
	assert.Error(t, p.LoadStarlark("policy.star", src))
}

func TestLoadStarlarkRejectsNonStringEntries(t *testing.T) {
	p := Default()
	src := []byte(`excluded_functions = [1, 2]`)
	assert.Error(t, p.LoadStarlark("policy.star", src))
}

func TestAddRecognizerIsReturnedByRecognizers(t *testing.T) {
	p := Default()
	assert.Empty(t, p.Recognizers())
	called := false
	p.AddRecognizer(func(body, param string) (avr.ReductionKind, int, bool) {
		called = true
		return avr.Subtract, 3, true
	})
	require.Len(t, p.Recognizers(), 1)
	kind, n, ok := p.Recognizers()[0]("body", "param")
	assert.True(t, called)
	assert.True(t, ok)
	assert.Equal(t, avr.Subtract, kind)
	assert.Equal(t, 3, n)
}
