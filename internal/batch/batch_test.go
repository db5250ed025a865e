package batch

import (
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

func collect[T any](t *testing.T, seq iter.Seq2[[]T, error]) ([][]T, error) {
	t.Helper()
	var out [][]T
	for b, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, b)
	}
	return out, nil
}

func seqOf(n int) []int {
	items := make([]int, n)
	for i := range items {
		items[i] = i
	}
	return items
}

func TestBatches_ConcatenationReproducesInput(t *testing.T) {
	for _, n := range []int{0, 1, 2, 7, 99, 100, 101, 250} {
		for _, size := range []int{1, 2, 3, 10, 100, 1000} {
			items := seqOf(n)
			batches, err := collect(t, Batches(FromSlice(items), size))
			require.NoError(t, err)

			var flat []int
			for i, b := range batches {
				require.NotEmpty(t, b)
				if i < len(batches)-1 {
					assert.Len(t, b, size, "n=%d size=%d batch=%d", n, size, i)
				} else {
					assert.LessOrEqual(t, len(b), size)
				}
				flat = append(flat, b...)
			}
			if n == 0 {
				assert.Empty(t, batches)
				continue
			}
			assert.Equal(t, items, flat, "n=%d size=%d", n, size)
		}
	}
}

func TestBatches_EmptyInputYieldsNothing(t *testing.T) {
	batches, err := collect(t, Batches(FromSlice([]string{}), 5))
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestBatches_TwoHundredFifty(t *testing.T) {
	batches, err := collect(t, Batches(FromSlice(seqOf(250)), 100))
	require.NoError(t, err)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 100)
	assert.Len(t, batches[1], 100)
	assert.Len(t, batches[2], 50)
}

func TestBatches_UpstreamErrorStopsIteration(t *testing.T) {
	boom := errors.New("source failed")
	pulled := 0
	src := func(yield func(int, error) bool) {
		for i := 0; i < 5; i++ {
			pulled++
			if !yield(i, nil) {
				return
			}
		}
		pulled++
		if !yield(0, boom) {
			return
		}
		// Never reached: the consumer stops after the error.
		for i := 0; i < 5; i++ {
			pulled++
			if !yield(i, nil) {
				return
			}
		}
	}

	batches, err := collect(t, Batches(src, 2))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, [][]int{{0, 1}, {2, 3}}, batches, "pending item 4 is dropped")
	assert.Equal(t, 6, pulled)
}

func TestBatches_InvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		_, err := collect(t, Batches(FromSlice(seqOf(3)), size))
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	}
}

func TestBatches_ConsumerCanStopEarly(t *testing.T) {
	pulled := 0
	src := func(yield func(int, error) bool) {
		for i := 0; i < 100; i++ {
			pulled++
			if !yield(i, nil) {
				return
			}
		}
	}

	for b, err := range Batches(iter.Seq2[int, error](src), 10) {
		require.NoError(t, err)
		assert.Len(t, b, 10)
		break
	}
	assert.Equal(t, 10, pulled, "only one batch worth of items is pulled")
}

func TestBatches_BatchesDoNotAlias(t *testing.T) {
	batches, err := collect(t, Batches(FromSlice(seqOf(4)), 2))
	require.NoError(t, err)
	batches[0][0] = 99
	assert.Equal(t, 2, batches[1][0])
}
