package action

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/actionweave/core"
	"github.com/hupe1980/actionweave/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sumParams() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}
}

func testContext() *core.CallContext {
	return core.NewCallContext(context.Background(), "run-1", "fc-1", nil, nil)
}

func TestNew_Defaults(t *testing.T) {
	a, err := New("sum", "Add numbers", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "sum", a.Name())
	assert.Equal(t, DefaultScope, a.Scope())
	assert.False(t, a.Terminal())
	assert.Nil(t, a.Orchestration())
	assert.Equal(t, "object", a.Parameters()["type"])
}

func TestNew_Options(t *testing.T) {
	e := expr.MustRequireNext(expr.Names("sum", "report")...)
	a, err := New("sum", "Add numbers", sumParams(), nil, func(o *Options) {
		o.Terminal = true
		o.Scope = "math"
		o.Orchestration = e
	})
	require.NoError(t, err)

	assert.True(t, a.Terminal())
	assert.Equal(t, "math", a.Scope())
	assert.Equal(t, expr.Element(e), a.Orchestration())
}

func TestNew_Invalid(t *testing.T) {
	_, err := New("", "desc", nil, nil)
	assert.Error(t, err)

	_, err = New("name", "", nil, nil)
	assert.Error(t, err)

	assert.Panics(t, func() { MustNew("", "", nil, nil) })
}

func TestCall_Success(t *testing.T) {
	a := MustNew("sum", "Add numbers", sumParams(), func(cc *core.CallContext, args map[string]any) (any, error) {
		assert.Equal(t, "sum", cc.Action())
		assert.Equal(t, "fc-1", cc.FunctionCallID())
		return args["a"].(float64) + args["b"].(float64), nil
	})

	result, err := a.Call(testContext(), map[string]any{"a": 2.0, "b": 3.0})
	require.NoError(t, err)
	assert.Equal(t, 5.0, result)
}

func TestCall_ValidationError(t *testing.T) {
	a := MustNew("sum", "Add numbers", sumParams(), func(_ *core.CallContext, _ map[string]any) (any, error) {
		return 0, nil
	})

	_, err := a.Call(testContext(), map[string]any{"a": 1.0})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMalformedArguments)

	var actionErr *Error
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, CodeMalformedArguments, actionErr.Code)
	assert.Equal(t, "sum", actionErr.Action)
}

func TestCall_ExecutionError(t *testing.T) {
	boom := errors.New("boom")
	a := MustNew("fail", "Fails", nil, func(_ *core.CallContext, _ map[string]any) (any, error) {
		return nil, boom
	})

	_, err := a.Call(testContext(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrActionExecution)
	assert.ErrorIs(t, err, boom)

	var actionErr *Error
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, CodeExecution, actionErr.Code)
}

func TestCall_ForwardsActionError(t *testing.T) {
	a := MustNew("quota", "Quota check", nil, func(_ *core.CallContext, _ map[string]any) (any, error) {
		return nil, NewError("quota", "limit reached", "QUOTA")
	})

	_, err := a.Call(testContext(), nil)

	var actionErr *Error
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, "QUOTA", actionErr.Code)
	assert.ErrorIs(t, err, core.ErrActionExecution)
}

func TestCall_PanicRecovered(t *testing.T) {
	a := MustNew("panics", "Panics", nil, func(_ *core.CallContext, _ map[string]any) (any, error) {
		panic("kaboom")
	})

	result, err := a.Call(nil, nil)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, core.ErrActionExecution)

	var actionErr *Error
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, CodePanic, actionErr.Code)
	assert.Contains(t, actionErr.Message, "kaboom")
}

func TestCall_NoHandler(t *testing.T) {
	a := MustNew("empty", "No handler", nil, nil)

	_, err := a.Call(testContext(), nil)
	assert.ErrorIs(t, err, core.ErrActionExecution)
}

type counter struct{ n int }

func TestBindAndMethod(t *testing.T) {
	incr := MustNew("incr", "Increment", nil, Method(func(c *counter, _ *core.CallContext, _ map[string]any) (any, error) {
		c.n++
		return c.n, nil
	}))

	c := &counter{}
	bound := incr.Bind(c)

	assert.Nil(t, incr.Receiver())
	assert.Same(t, c, bound.Receiver())

	result, err := bound.Call(testContext(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result)

	_, err = incr.Call(testContext(), nil)
	assert.ErrorIs(t, err, core.ErrActionExecution)
}

func TestNewFromStruct(t *testing.T) {
	type weatherArgs struct {
		City string `json:"city" description:"City name"`
		Unit string `json:"unit,omitempty" enum:"celsius,fahrenheit"`
	}

	a, err := NewFromStruct("weather", "Get weather", weatherArgs{}, func(_ *core.CallContext, args map[string]any) (any, error) {
		return args["city"], nil
	})
	require.NoError(t, err)

	props := a.Parameters()["properties"].(map[string]any)
	assert.Contains(t, props, "city")
	assert.Contains(t, props, "unit")

	_, err = a.Call(testContext(), map[string]any{"city": "Berlin", "unit": "kelvin"})
	assert.ErrorIs(t, err, core.ErrMalformedArguments)

	result, err := a.Call(testContext(), map[string]any{"city": "Berlin"})
	require.NoError(t, err)
	assert.Equal(t, "Berlin", result)
}

func TestWithName(t *testing.T) {
	a := MustNew("a", "A", nil, nil, func(o *Options) {
		o.Orchestration = expr.MustRequireNext(expr.Names("a", "b")...)
	})

	assert.Same(t, a, a.WithName("a"))

	alias := a.WithName("alias")
	assert.Equal(t, "alias", alias.Name())
	assert.Nil(t, alias.Orchestration())
	assert.Equal(t, "a", a.Name())
}

func TestWithoutOrchestration(t *testing.T) {
	a := MustNew("a", "A", nil, nil, func(o *Options) {
		o.Orchestration = expr.MustRequireNext(expr.Names("a", "b")...)
		o.Terminal = true
	})

	c := a.WithoutOrchestration()
	assert.NotSame(t, a, c)
	assert.Equal(t, "a", c.Name())
	assert.True(t, c.Terminal())
	assert.Nil(t, c.Orchestration())
	assert.NotNil(t, a.Orchestration())
}

func sumAction(optFns ...func(o *Options)) *Action {
	return MustNew("sum", "Add numbers", sumParams(), func(_ *core.CallContext, args map[string]any) (any, error) {
		return args["a"].(float64) + args["b"].(float64), nil
	}, optFns...)
}

func TestRepeat(t *testing.T) {
	rep, err := Repeat(sumAction(func(o *Options) { o.Terminal = true }))
	require.NoError(t, err)

	assert.Equal(t, "sum", rep.Name())
	assert.Equal(t, "Add numbers", rep.Description())
	assert.True(t, rep.Terminal())

	props := rep.Parameters()["properties"].(map[string]any)
	list := props["sum"].(map[string]any)
	assert.Equal(t, "array", list["type"])
	assert.Equal(t, sumParams(), list["items"])
	assert.Equal(t, []string{"sum"}, rep.Parameters()["required"])

	result, err := rep.Call(testContext(), map[string]any{"sum": []any{
		map[string]any{"a": 1.0, "b": 2.0},
		map[string]any{"a": 3.0, "b": 4.0},
	}})
	require.NoError(t, err)
	assert.Equal(t, "3\n7", result)

	t.Run("custom reducer", func(t *testing.T) {
		total, err := Repeat(sumAction(), func(o *FactoryOptions) {
			o.Name = "sum_all"
			o.Reducer = func(results []any) (any, error) {
				var s float64
				for _, r := range results {
					s += r.(float64)
				}
				return s, nil
			}
		})
		require.NoError(t, err)
		assert.Equal(t, "sum_all", total.Name())

		result, err := total.Call(testContext(), map[string]any{"sum": []any{
			map[string]any{"a": 1.0, "b": 2.0},
			map[string]any{"a": 3.0, "b": 4.0},
		}})
		require.NoError(t, err)
		assert.Equal(t, 10.0, result)
	})

	t.Run("item not an object", func(t *testing.T) {
		_, err := rep.Call(testContext(), map[string]any{"sum": []any{"x"}})
		assert.ErrorIs(t, err, core.ErrMalformedArguments)
	})

	t.Run("item fails validation", func(t *testing.T) {
		_, err := rep.Call(testContext(), map[string]any{"sum": []any{
			map[string]any{"a": 1.0, "b": 2.0},
			map[string]any{"a": 1.0},
		}})
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrMalformedArguments)
		assert.Contains(t, err.Error(), "invoke sum with item 1")
	})

	t.Run("missing list", func(t *testing.T) {
		_, err := rep.Call(testContext(), map[string]any{})
		assert.ErrorIs(t, err, core.ErrMalformedArguments)
	})
}

func TestCombine(t *testing.T) {
	greet := MustNew("Greet", "Greet someone", map[string]any{
		"type":       "object",
		"properties": map[string]any{"name": map[string]any{"type": "string"}},
		"required":   []string{"name"},
	}, func(_ *core.CallContext, args map[string]any) (any, error) {
		return "hello " + args["name"].(string), nil
	})

	comb, err := Combine([]*Action{greet, sumAction()})
	require.NoError(t, err)

	assert.Equal(t, "combine_greet_sum", comb.Name())
	assert.Equal(t, "Combination of Greet, sum", comb.Description())
	assert.False(t, comb.Terminal())
	assert.Equal(t, []string{"Greet", "sum"}, comb.Parameters()["required"])

	props := comb.Parameters()["properties"].(map[string]any)
	assert.Equal(t, sumParams(), props["sum"])

	result, err := comb.Call(testContext(), map[string]any{
		"Greet": map[string]any{"name": "Ada"},
		"sum":   map[string]any{"a": 1.0, "b": 2.0},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello Ada\n3", result)

	t.Run("missing part", func(t *testing.T) {
		_, err := comb.Call(testContext(), map[string]any{"Greet": map[string]any{"name": "Ada"}})
		assert.ErrorIs(t, err, core.ErrMalformedArguments)
	})

	t.Run("wrapped failure", func(t *testing.T) {
		boom := errors.New("boom")
		failing := MustNew("fail", "Always fails", nil, func(*core.CallContext, map[string]any) (any, error) {
			return nil, boom
		})

		c, err := Combine([]*Action{greet, failing}, func(o *FactoryOptions) {
			o.Name = "both"
			o.Description = "Greet then fail"
		})
		require.NoError(t, err)
		assert.Equal(t, "both", c.Name())

		_, err = c.Call(testContext(), map[string]any{
			"Greet": map[string]any{"name": "Ada"},
			"fail":  map[string]any{},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrActionExecution)
		assert.ErrorIs(t, err, boom)

		var actionErr *Error
		require.ErrorAs(t, err, &actionErr)
		assert.Equal(t, "both", actionErr.Action)
		assert.Equal(t, CodeExecution, actionErr.Code)
		assert.Contains(t, actionErr.Message, "invoke fail")
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := Combine(nil)
		assert.Error(t, err)

		_, err = Combine([]*Action{greet, greet})
		assert.ErrorIs(t, err, core.ErrDuplicateAction)
	})
}
