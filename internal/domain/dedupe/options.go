package dedupe

// Option applies a configuration option to a Deduper.
type Option func(*consecutiveDeduper)

// WithKeyFunc maps values to the key that is compared, e.g. strings.ToLower.
// Values are compared verbatim when no key func is set.
func WithKeyFunc(fn func(string) string) Option {
	return func(d *consecutiveDeduper) {
		if fn != nil {
			d.keyFunc = fn
		}
	}
}
