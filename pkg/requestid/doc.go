// Package requestid correlates notification API calls with server logs.
//
// The client stamps every outgoing request with X-Request-ID through Set; the
// dev backend's Middleware accepts or replaces it, echoes it back and stores
// it in the request context, where LoggerExtractor picks it up for slog.
package requestid
