// Package httputil provides HTTP handler utilities for the billfold API:
// the success/error response envelope, request parsing helpers, and the
// shared middleware chain.
package httputil
