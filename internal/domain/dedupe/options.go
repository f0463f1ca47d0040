package dedupe

// Option applies a configuration option to the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithCapacity pre-sizes the seen set. Values <= 0 are ignored.
func WithCapacity(n int) Option {
	return func(d *inMemoryDeduper) {
		if n > 0 {
			d.capacity = n
		}
	}
}

// WithSeed records keys as already seen.
func WithSeed(keys ...string) Option {
	return func(d *inMemoryDeduper) {
		d.seed = append(d.seed, keys...)
	}
}
