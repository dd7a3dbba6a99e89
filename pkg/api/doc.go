// Package api exposes the billing admin REST surface.
//
// Routes live under /api/v1 and every response uses the httputil envelope:
// {success, data, message} on success, {success:false, error:{code,message}}
// on failure. Handlers validate input, delegate to the domain services, and
// translate coded billing errors into HTTP status codes.
package api
