// Package chunk decodes the host-facing payload formats the runtime
// consumes: flat chunk payloads (ids interleaved with factories), update
// instructions (added/deleted/partial per chunk path), and the JSON
// manifest envelope for source-carrying payloads.
//
// The package is pure data plumbing: it never touches the module cache or
// the factory registry. Classification rules that depend on graph state
// (who accepts what) live in package runtime.
package chunk
