// Package memegen implements the synchronous template-gallery path:
// a cached template catalog, model-written caption lines and encoded
// image URLs served directly to the caller.
package memegen
