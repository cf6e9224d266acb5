// Package api is the HTTP surface of the service: a chi router, JWT bearer
// authentication on everything under /api except register and login, and
// handlers that translate requests into service calls. Errors are mapped
// to status codes in one place (MapErrorToStatusCode) so handlers never
// write raw error text to clients.
package api
