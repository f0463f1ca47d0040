package repository

// Option applies a configuration option to the file-backed stores.
type Option func(*options)

type options struct {
	indent string
}

func defaultOptions() options {
	return options{indent: "  "}
}

// WithIndent sets the JSON indentation; an empty string writes compact JSON.
func WithIndent(indent string) Option {
	return func(o *options) {
		o.indent = indent
	}
}
