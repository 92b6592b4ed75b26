package tensor

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestShape_NumElements(t *testing.T) {
	tests := []struct {
		shape Shape
		want  int
	}{
		{Shape{}, 1},
		{Shape{5}, 5},
		{Shape{2, 3}, 6},
		{Shape{2, 3, 4}, 24},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.shape.NumElements(), "shape %v", tt.shape)
	}
}

func TestShape_Validate(t *testing.T) {
	assert.NoError(t, Shape{}.Validate())
	assert.NoError(t, Shape{1, 7}.Validate())

	for _, bad := range []Shape{{0}, {2, -1}, {3, 0, 2}} {
		err := bad.Validate()
		assert.True(t, errors.Is(err, ErrInvalidShape), "shape %v: %v", bad, err)
	}
}

func TestShape_ComputeStrides(t *testing.T) {
	assert.Equal(t, []int{12, 4, 1}, Shape{2, 3, 4}.ComputeStrides())
	assert.Equal(t, []int{1}, Shape{5}.ComputeStrides())
	assert.Empty(t, Shape{}.ComputeStrides())
}

func TestShape_EqualAndClone(t *testing.T) {
	s := Shape{2, 3}
	c := s.Clone()
	assert.True(t, s.Equal(c))
	c[0] = 9
	assert.Equal(t, 2, s[0], "clone must not alias")
	assert.False(t, s.Equal(Shape{3, 2}))
	assert.False(t, s.Equal(Shape{2, 3, 1}))
	assert.Equal(t, "[2, 3]", s.String())
}
