package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, c Codec, args ...any) Key {
	t.Helper()
	k, err := c.Encode(args...)
	require.NoError(t, err)
	return k
}

func TestEncode_Deterministic(t *testing.T) {
	t.Parallel()
	c := Codec{}

	k1 := encode(t, c, "a", 1, true, 2.5)
	k2 := encode(t, c, "a", 1, true, 2.5)
	assert.Equal(t, k1, k2)
}

func TestEncode_PositionalOrderMatters(t *testing.T) {
	t.Parallel()
	c := Codec{}

	assert.NotEqual(t, encode(t, c, 1, 2), encode(t, c, 2, 1))
	assert.NotEqual(t, encode(t, c, "ab"), encode(t, c, "a", "b"))
}

func TestEncode_NamedOrderIndependent(t *testing.T) {
	t.Parallel()
	c := Codec{}

	k1 := encode(t, c, "q", Named("limit", 10), Named("offset", 20))
	k2 := encode(t, c, "q", Named("offset", 20), Named("limit", 10))
	assert.Equal(t, k1, k2)

	// Same values under different names are different calls.
	k3 := encode(t, c, "q", Named("limit", 20), Named("offset", 10))
	assert.NotEqual(t, k1, k3)
}

func TestEncode_DuplicateNamedRejected(t *testing.T) {
	t.Parallel()

	_, err := Codec{}.Encode(Named("x", 1), Named("x", 2))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnhashable)
	assert.Contains(t, err.Error(), `"x"`)
}

func TestEncode_NumericEquivalenceUntyped(t *testing.T) {
	t.Parallel()
	c := Codec{}

	// 3 == 3.0 shares one key when types are not part of the key.
	assert.Equal(t, encode(t, c, 3), encode(t, c, 3.0))
	assert.Equal(t, encode(t, c, int8(3)), encode(t, c, int64(3)))
	assert.Equal(t, encode(t, c, uint(3)), encode(t, c, 3))
	assert.Equal(t, encode(t, c, float32(3)), encode(t, c, 3))

	// Non-integral floats stay distinct from any integer.
	assert.NotEqual(t, encode(t, c, 3.5), encode(t, c, 3))
}

func TestEncode_TypedDiscriminates(t *testing.T) {
	t.Parallel()
	c := Codec{Typed: true}

	assert.NotEqual(t, encode(t, c, 3), encode(t, c, 3.0))
	assert.NotEqual(t, encode(t, c, int8(3)), encode(t, c, int64(3)))

	// Equal values of equal types still collide, typed or not.
	assert.Equal(t, encode(t, c, 3, "x"), encode(t, c, 3, "x"))
}

func TestEncode_KindsAreTagged(t *testing.T) {
	t.Parallel()
	c := Codec{}

	assert.NotEqual(t, encode(t, c, "1"), encode(t, c, 1))
	assert.NotEqual(t, encode(t, c, true), encode(t, c, 1))
	assert.NotEqual(t, encode(t, c, ""), encode(t, c, nil))
	assert.NotEqual(t, encode(t, c, []int{}), encode(t, c, nil))
}

func TestEncode_Composites(t *testing.T) {
	t.Parallel()
	c := Codec{}

	assert.Equal(t,
		encode(t, c, []int{1, 2, 3}),
		encode(t, c, []int{1, 2, 3}))
	assert.NotEqual(t,
		encode(t, c, []int{1, 2, 3}),
		encode(t, c, []int{3, 2, 1}))

	// Map keys hash order-independently.
	assert.Equal(t,
		encode(t, c, map[string]int{"a": 1, "b": 2}),
		encode(t, c, map[string]int{"b": 2, "a": 1}))
	assert.NotEqual(t,
		encode(t, c, map[string]int{"a": 1, "b": 2}),
		encode(t, c, map[string]int{"a": 2, "b": 1}))

	type query struct {
		Table string
		Limit int
	}
	assert.Equal(t,
		encode(t, c, query{"users", 10}),
		encode(t, c, query{"users", 10}))
	assert.NotEqual(t,
		encode(t, c, query{"users", 10}),
		encode(t, c, query{"users", 11}))

	// Pointers hash by pointee.
	q := query{"users", 10}
	assert.Equal(t, encode(t, c, &q), encode(t, c, query{"users", 10}))
}

func TestEncode_Unhashable(t *testing.T) {
	t.Parallel()
	c := Codec{}

	cases := map[string]any{
		"func":           func() {},
		"chan":           make(chan int),
		"nested func":    []any{1, func() {}},
		"func in struct": struct{ F func() }{},
	}
	for name, v := range cases {
		_, err := c.Encode(v)
		assert.ErrorIs(t, err, ErrUnhashable, name)
	}

	// Cyclic values are rejected rather than recursed into forever.
	type ring struct{ Next *ring }
	r := &ring{}
	r.Next = r
	_, err := c.Encode(r)
	assert.ErrorIs(t, err, ErrUnhashable)

	// The error names the offending argument.
	_, err = c.Encode(1, "two", make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "argument 2")
	_, err = c.Encode(Named("sink", make(chan int)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"sink"`)
}

func TestKey_String(t *testing.T) {
	t.Parallel()

	assert.Len(t, Key(0).String(), 16)
	assert.Equal(t, "00000000000000ff", Key(255).String())
}
