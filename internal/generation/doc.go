// Package generation defines the capability interfaces for the external
// text and image generation backends, plus the shared failure taxonomy.
// Adapters implement these interfaces; the pipeline and orchestrator only
// ever see the interfaces.
package generation
