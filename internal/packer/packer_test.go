package packer

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/binpacker/internal/geometry"
)

func items(dims ...[2]float64) []geometry.Item {
	out := make([]geometry.Item, len(dims))
	for i, d := range dims {
		out[i] = geometry.Item{Width: d[0], Height: d[1]}
	}
	return out
}

func exampleItems() []geometry.Item {
	return ExampleItems()
}

type placed struct {
	w, h, x, y float64
}

func layout(b Bin) []placed {
	out := make([]placed, len(b.Items))
	for i, it := range b.Items {
		out[i] = placed{it.Width, it.Height, it.X, it.Y}
	}
	return out
}

func TestPackExampleScenario(t *testing.T) {
	t.Parallel()

	res, err := New().Pack(exampleItems(), 20, 10)
	require.NoError(t, err)
	require.Len(t, res.Bins, 2)
	assert.Empty(t, res.Dropped)

	assert.Equal(t, []placed{
		{8, 8, 0, 0},
		{5, 10, 8, 0},
		{6, 6, 13, 0},
		{6, 4, 13, 6},
		{1, 8, 19, 0},
		{1, 2, 19, 8},
	}, layout(res.Bins[0]))
	assert.Equal(t, []placed{
		{6, 6, 0, 0},
		{8, 4, 6, 0},
		{3, 7, 14, 0},
		{3, 3, 14, 7},
		{3, 3, 17, 0},
	}, layout(res.Bins[1]))

	assert.True(t, res.Bins[0].Items[4].Rotated)
	assert.Equal(t, "item-11", res.Bins[0].Items[4].ID)
	assert.Equal(t, 11, res.PlacedCount())
	assertInvariants(t, exampleItems(), res, 20, 10)
}

func TestPackDropsOversizedItem(t *testing.T) {
	t.Parallel()

	res, err := New().Pack(items([2]float64{25, 5}), 20, 10)
	require.NoError(t, err)
	assert.Empty(t, res.Bins)
	require.Len(t, res.Dropped, 1)
	assert.Equal(t, 25.0, res.Dropped[0].Width)
	assert.Equal(t, 5.0, res.Dropped[0].Height)
	assert.False(t, res.Dropped[0].Rotated)
}

func TestPackStacksEqualWidths(t *testing.T) {
	t.Parallel()

	res, err := New().Pack(items([2]float64{10, 10}, [2]float64{10, 10}), 10, 20)
	require.NoError(t, err)
	require.Len(t, res.Bins, 1)
	assert.Equal(t, []placed{{10, 10, 0, 0}, {10, 10, 0, 10}}, layout(res.Bins[0]))
}

func TestPackRotatesToStack(t *testing.T) {
	t.Parallel()

	res, err := New().Pack(items([2]float64{10, 4}, [2]float64{4, 10}), 10, 14)
	require.NoError(t, err)
	require.Len(t, res.Bins, 1)
	assert.Equal(t, []placed{{10, 4, 0, 0}, {10, 4, 0, 4}}, layout(res.Bins[0]))
	assert.Equal(t, "item-2", res.Bins[0].Items[1].ID)
	assert.True(t, res.Bins[0].Items[1].Rotated)
}

func TestPackOpensNewBinWhenFull(t *testing.T) {
	t.Parallel()

	in := items(
		[2]float64{4, 4}, [2]float64{4, 4}, [2]float64{4, 4},
		[2]float64{4, 4}, [2]float64{4, 4}, [2]float64{4, 4},
	)
	res, err := New().Pack(in, 8, 8)
	require.NoError(t, err)
	require.Len(t, res.Bins, 2)
	assert.Equal(t, 4, res.Bins[0].Len())
	assert.Equal(t, 2, res.Bins[1].Len())
	assert.InDelta(t, 100.0, res.Bins[0].Efficiency(), 1e-9)
	assertInvariants(t, in, res, 8, 8)
}

func TestPackOnlyConsidersLastPlacedItem(t *testing.T) {
	t.Parallel()

	res, err := New().Pack(items([2]float64{6, 2}, [2]float64{6, 3}, [2]float64{4, 4}), 10, 10)
	require.NoError(t, err)
	require.Len(t, res.Bins, 2)
	assert.Equal(t, []placed{{6, 3, 0, 0}, {4, 4, 6, 0}}, layout(res.Bins[0]))
	assert.Equal(t, []placed{{6, 2, 0, 0}}, layout(res.Bins[1]))
}

func TestPackSortIsStableForEqualAreas(t *testing.T) {
	t.Parallel()

	in := []geometry.Item{
		{ID: "first", Width: 2, Height: 6},
		{ID: "second", Width: 3, Height: 4},
		{ID: "third", Width: 6, Height: 2},
	}
	res, err := New().Pack(in, 100, 100)
	require.NoError(t, err)
	require.Len(t, res.Bins, 1)

	ids := make([]string, 0, 3)
	for _, it := range res.Bins[0].Items {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"first", "second", "third"}, ids)
}

func TestPackDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	in := exampleItems()
	snapshot := append([]geometry.Item(nil), in...)

	_, err := New().Pack(in, 20, 10)
	require.NoError(t, err)
	assert.Equal(t, snapshot, in)
}

func TestPackEmptyInput(t *testing.T) {
	t.Parallel()

	res, err := New().Pack(nil, 20, 10)
	require.NoError(t, err)
	assert.Empty(t, res.Bins)
	assert.Empty(t, res.Dropped)
	assert.Equal(t, 0.0, res.TotalEfficiency())
}

func TestPackRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		items   []geometry.Item
		w, h    float64
		wantErr error
	}{
		{name: "ZeroBinWidth", items: exampleItems(), w: 0, h: 10, wantErr: ErrInvalidBinSize},
		{name: "NegativeBinHeight", items: exampleItems(), w: 20, h: -1, wantErr: ErrInvalidBinSize},
		{name: "ZeroItemWidth", items: items([2]float64{0, 5}), w: 20, h: 10, wantErr: ErrInvalidItem},
		{name: "NegativeItemHeight", items: items([2]float64{3, 3}, [2]float64{5, -2}), w: 20, h: 10, wantErr: ErrInvalidItem},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := New().Pack(tc.items, tc.w, tc.h)
			assert.True(t, errors.Is(err, tc.wantErr), "expected %v, got %v", tc.wantErr, err)
		})
	}
}

func TestPackIsDeterministic(t *testing.T) {
	t.Parallel()

	p := New(WithLogger(zaptest.NewLogger(t)))
	first, err := p.Pack(exampleItems(), 20, 10)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := p.Pack(exampleItems(), 20, 10)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestPackRandomizedInvariants(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		binW := float64(5 + rng.Intn(30))
		binH := float64(5 + rng.Intn(30))
		in := make([]geometry.Item, 1+rng.Intn(40))
		for i := range in {
			in[i] = geometry.Item{
				Width:  float64(1 + rng.Intn(40)),
				Height: float64(1 + rng.Intn(40)),
			}
		}

		res, err := New().Pack(in, binW, binH)
		require.NoError(t, err)
		assertInvariants(t, in, res, binW, binH)
	}
}

// assertInvariants checks no-overlap, containment and conservation.
func assertInvariants(t *testing.T, in []geometry.Item, res Result, binW, binH float64) {
	t.Helper()

	seen := make(map[string]int)
	for bi, bin := range res.Bins {
		assert.Equal(t, binW, bin.Width)
		assert.Equal(t, binH, bin.Height)
		assert.NotEmpty(t, bin.Items, "bin %d must not be empty", bi)
		for i, a := range bin.Items {
			seen[a.ID]++
			assert.GreaterOrEqual(t, a.X, 0.0)
			assert.GreaterOrEqual(t, a.Y, 0.0)
			assert.LessOrEqual(t, a.Right(), bin.Width, "bin %d item %s exceeds width", bi, a.ID)
			assert.LessOrEqual(t, a.Bottom(), bin.Height, "bin %d item %s exceeds height", bi, a.ID)
			for _, b := range bin.Items[i+1:] {
				assert.False(t, a.Overlaps(b), "bin %d: %s overlaps %s", bi, a, b)
			}
		}
	}
	for _, d := range res.Dropped {
		seen[d.ID]++
		assert.False(t, d.FitsInside(binW, binH), "dropped item %s fits", d)
		assert.False(t, d.Rotated90().FitsInside(binW, binH), "dropped item %s fits rotated", d)
	}

	assert.Len(t, seen, len(in))
	for id, n := range seen {
		assert.Equal(t, 1, n, "item %s appears %d times", id, n)
	}
}

func BenchmarkPackExample(b *testing.B) {
	p := New()
	in := exampleItems()
	for i := 0; i < b.N; i++ {
		if _, err := p.Pack(in, 20, 10); err != nil {
			b.Fatalf("unexpected error: %v", err)
		}
	}
}

func BenchmarkPackThousandItems(b *testing.B) {
	rng := rand.New(rand.NewSource(7))
	in := make([]geometry.Item, 1000)
	for i := range in {
		in[i] = geometry.Item{Width: float64(1 + rng.Intn(50)), Height: float64(1 + rng.Intn(50))}
	}
	p := New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := p.Pack(in, 100, 100); err != nil {
			b.Fatalf("unexpected error: %v", err)
		}
	}
}
