// Package domain contains the core entities of the meme generation
// service: generation requests, the visualization style catalog, and
// generation results. Entities validate themselves at construction time
// and are immutable once created.
package domain
