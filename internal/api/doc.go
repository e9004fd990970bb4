// Package api implements the HTTP gateway: task submission, status
// polling, result delivery, the style catalog, the synchronous gallery
// path, internal uploads and health endpoints.
package api
