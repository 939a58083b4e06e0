package engine

import "net/http"

// SendOption adjusts a single Send call.
type SendOption func(*sendOptions)

type sendOptions struct {
	dryRun  bool
	headers http.Header
}

// WithDryRun prints the request that would be sent and returns without
// performing it.
func WithDryRun() SendOption {
	return func(o *sendOptions) {
		o.dryRun = true
	}
}

// WithHeaders adds headers for this call only. They override client headers
// of the same name.
func WithHeaders(headers http.Header) SendOption {
	return func(o *sendOptions) {
		if o.headers == nil {
			o.headers = make(http.Header, len(headers))
		}
		for key, values := range headers {
			o.headers[http.CanonicalHeaderKey(key)] = append([]string(nil), values...)
		}
	}
}

func applySendOptions(opts []SendOption) sendOptions {
	var o sendOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
