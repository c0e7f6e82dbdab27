package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmpty(t *testing.T) {
	s := New[string]()
	assert.True(t, s.Empty())

	s.Push("33")
	assert.False(t, s.Empty())
}

func TestEmptyPop(t *testing.T) {
	s := New[string]()
	_, err := s.Pop()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestPushPop(t *testing.T) {
	s := New[string]()
	s.Push("33")

	out, err := s.Pop()
	require.NoError(t, err)
	assert.Equal(t, "33", out)
	assert.True(t, s.Empty())
}

func TestTopDoesNotRemove(t *testing.T) {
	s := New[int]()
	s.Push(1)
	s.Push(2)

	top, err := s.Top()
	require.NoError(t, err)
	assert.Equal(t, 2, top)
	assert.Equal(t, 2, s.Len())
}

func TestReverseIsTopFirst(t *testing.T) {
	s := New[string]()
	s.Push("a")
	s.Push("b")
	s.Push("c")

	assert.Equal(t, []string{"c", "b", "a"}, s.Reverse())
}
