// Package task implements the asynchronous generation lifecycle: task
// submission, the worker loop that drives tasks through the pipeline,
// retry with exponential backoff, and persisted state for polling.
package task
