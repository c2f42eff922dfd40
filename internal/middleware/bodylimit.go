package middleware

import "net/http"

// MaxBodyBytes caps request bodies at 10mb, matching the JSON body limit
// of the public API.
const MaxBodyBytes = 10 << 20

// LimitBody wraps request bodies in a MaxBytesReader so oversized payloads
// fail during decoding instead of being buffered whole.
func LimitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}
