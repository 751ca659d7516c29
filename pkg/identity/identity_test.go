package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type named struct{ name string }

type caseless string

func (c caseless) Equal(other any) bool {
	o, ok := other.(caseless)
	return ok && len(o) == len(c) && (o == c || upper(string(o)) == upper(string(c)))
}

func upper(s string) string {
	b := []byte(s)
	for i, ch := range b {
		if ch >= 'a' && ch <= 'z' {
			b[i] = ch - 32
		}
	}
	return string(b)
}

type fixedHash struct{ id int }

type tagged struct {
	Name string
	Tag  any
}

type withFunc struct {
	id int
	fn func()
}

func (f fixedHash) Hash() uint64 { return uint64(f.id) * 7 }

func TestEqual(t *testing.T) {
	p := &named{name: "a"}
	fn := func() {}
	m := map[string]int{}

	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"both nil", nil, nil, true},
		{"nil vs value", nil, p, false},
		{"same pointer", p, p, true},
		{"distinct pointers equal content", p, &named{name: "a"}, false},
		{"comparable struct values", named{"x"}, named{"x"}, true},
		{"different types", 1, int64(1), false},
		{"same func value", fn, fn, true},
		{"same map", m, m, true},
		{"different maps", m, map[string]int{}, false},
		{"equaler", caseless("Abc"), caseless("aBC"), true},
		{"equaler mismatch", caseless("abc"), caseless("abd"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}

func TestHash_ConsistentWithEqual(t *testing.T) {
	p := &named{name: "a"}
	fn := func() {}

	pairs := [][2]any{
		{p, p},
		{named{"x"}, named{"x"}},
		{fn, fn},
		{tagged{"t", map[int]int{}}, tagged{"t", map[int]int{}}},
		{"listener", "listener"},
		{42, 42},
		{caseless("Abc"), caseless("aBC")},
		{fixedHash{3}, fixedHash{3}},
	}
	for _, pair := range pairs {
		if Equal(pair[0], pair[1]) {
			assert.Equal(t, Hash(pair[0]), Hash(pair[1]), "%T", pair[0])
		}
	}
}

func TestHash_Nil(t *testing.T) {
	assert.Equal(t, uint64(0), Hash(nil))
}

func TestHash_UsesHasher(t *testing.T) {
	assert.Equal(t, uint64(21), Hash(fixedHash{3}))
}

func TestHash_DistinguishesTypes(t *testing.T) {
	assert.NotEqual(t, Hash(1), Hash(int64(1)))
	assert.NotEqual(t, Hash("a"), Hash("b"))
}

func TestEqual_UncomparableContents(t *testing.T) {
	m := map[string]int{}
	s := []int{1, 2}
	fn := func() {}

	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"same map in field", tagged{"a", m}, tagged{"a", m}, true},
		{"different maps in field", tagged{"a", m}, tagged{"a", map[string]int{}}, false},
		{"same slice in field", tagged{"a", s}, tagged{"a", s}, true},
		{"resliced slice in field", tagged{"a", s}, tagged{"a", s[:1]}, false},
		{"same func in field", tagged{"a", fn}, tagged{"a", fn}, true},
		{"map vs scalar in field", tagged{"a", m}, tagged{"a", 1}, false},
		{"different names", tagged{"a", m}, tagged{"b", m}, false},
		{"unexported func field", withFunc{1, fn}, withFunc{1, fn}, true},
		{"array of maps", [1]map[string]int{m}, [1]map[string]int{m}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() { Equal(tt.a, tt.b) })
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
			if tt.want {
				assert.Equal(t, Hash(tt.a), Hash(tt.b))
			}
		})
	}
}

func TestEqual_ClosuresAreDistinct(t *testing.T) {
	var fns []func()
	for i := range 3 {
		fns = append(fns, func() { _ = i })
	}

	for i, a := range fns {
		assert.True(t, Equal(a, a))
		assert.Equal(t, Hash(a), Hash(a))
		for j, b := range fns {
			if i != j {
				assert.False(t, Equal(a, b), "closures %d and %d", i, j)
			}
		}
	}
}
