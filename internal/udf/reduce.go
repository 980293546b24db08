// Package udf holds the Go functions the pipeline registers inside the
// engine. The per-key reduction used for procedure/date maps lives here as a
// plain generic function so it can be tested without an engine.
package udf

import "cmp"

// Entry is one key/value pair of a collected mapping.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// Policy reports whether next should replace current for a key that is
// already present.
type Policy[V any] func(current, next V) bool

// Max keeps the greatest value per key. It makes ReduceByKey associative,
// commutative and idempotent.
func Max[V cmp.Ordered](current, next V) bool { return next > current }

// Last keeps the value seen last per key ("last write wins").
func Last[V any](_, _ V) bool { return true }

// ReduceByKey folds entries into a mapping, resolving duplicate keys with
// keep. Nil or empty input yields an empty, non-nil mapping.
func ReduceByKey[K comparable, V any](entries []Entry[K, V], keep Policy[V]) map[K]V {
	out := make(map[K]V, len(entries))
	for _, e := range entries {
		Fold(out, e.Key, e.Value, keep)
	}
	return out
}

// Fold adds one pair to dst under keep.
func Fold[K comparable, V any](dst map[K]V, key K, value V, keep Policy[V]) {
	cur, ok := dst[key]
	if !ok || keep(cur, value) {
		dst[key] = value
	}
}

// Merge combines two partial reductions. With Max it is the associative
// combine step, so reductions computed per partition can be merged in any
// order.
func Merge[K comparable, V any](dst, src map[K]V, keep Policy[V]) map[K]V {
	if dst == nil {
		dst = make(map[K]V, len(src))
	}
	for k, v := range src {
		Fold(dst, k, v, keep)
	}
	return dst
}
