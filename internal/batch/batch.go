// Package batch regroups a lazy stream of items into fixed-size batches.
package batch

import (
	"fmt"
	"iter"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

// Batches returns a lazy sequence of batches of up to size items.
//
// Every batch except the last has exactly size items; the last holds
// 1..size items and is emitted only if non-empty, so an empty input yields
// nothing. An error from seq is yielded once and ends the iteration; items
// buffered for the unfinished batch are dropped. A size below 1 yields a
// single ErrInvalidInput.
func Batches[T any](seq iter.Seq2[T, error], size int) iter.Seq2[[]T, error] {
	return func(yield func([]T, error) bool) {
		if size < 1 {
			yield(nil, fmt.Errorf("%w: batch size must be positive, got %d", domain.ErrInvalidInput, size))
			return
		}

		buf := make([]T, 0, size)
		for item, err := range seq {
			if err != nil {
				yield(nil, err)
				return
			}
			buf = append(buf, item)
			if len(buf) == size {
				if !yield(buf, nil) {
					return
				}
				buf = make([]T, 0, size)
			}
		}

		if len(buf) > 0 {
			yield(buf, nil)
		}
	}
}

// FromSlice adapts a slice to the stream shape Batches consumes.
func FromSlice[T any](items []T) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}
}
