package requestid

import (
	"net/http"
	"regexp"
)

// Header carries the ID between the client and the notification API.
const Header = "X-Request-ID"

const maxIDLength = 128

var validID = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Middleware accepts a well-formed incoming X-Request-ID or mints a new one,
// echoes it on the response and stores it in the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if !valid(id) {
			id = New()
		}
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), id)))
	})
}

// Set writes the ID carried by the request context, or a fresh one, to the
// outgoing request and returns it.
func Set(req *http.Request) string {
	id := FromContext(req.Context())
	if id == "" {
		id = New()
	}
	req.Header.Set(Header, id)
	return id
}

func valid(id string) bool {
	return id != "" && len(id) <= maxIDLength && validID.MatchString(id)
}
