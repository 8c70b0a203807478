// Package internal contains the core implementation packages for svgs2fonts.
//
// This package follows Go's internal package convention, making these
// packages unavailable for import by external modules while providing
// all the core functionality for the svgs2fonts CLI tool.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - codepoint: Stable icon name to codepoint assignment with collision probing
//   - config: Configuration management with defaults and validation
//   - converter: Parallel font format conversion with per-format failure isolation
//   - demo: Demo page and stylesheet generation
//   - errors: Stage errors, configuration errors, and concurrent error collection
//   - logging: Structured logging with component scoping and operation timers
//   - pipeline: Single-directory build pipeline, batch scheduling, caching, metrics
//   - preview: HTTP preview server with WebSocket live reload
//   - registry: Icon registry with change event broadcasting
//   - scanner: SVG discovery, name validation, and input fingerprinting
//   - sfnt: TTF, EOT, WOFF, and WOFF2 encoders
//   - svgfont: Streaming SVG font assembly
//   - version: Build-time version information
//   - watcher: File system monitoring with debouncing
//
// # Inter-Package Communication
//
// Packages communicate through well-defined interfaces:
//
//   - Pipeline drives scanner, codepoint, svgfont, converter, and demo in order
//   - Watcher monitors the file system and triggers pipeline rebuilds
//   - Registry diffs successive builds and broadcasts per-icon change events
//   - Preview serves pipeline outputs and broadcasts reloads after rebuilds
//
// # Performance Optimizations
//
// Key performance optimizations include:
//
//   - Result caching keyed by a fingerprint of the source set
//   - Bounded worker pools for format conversion and batch building
//   - Debounced file watching to prevent excessive rebuilds
//   - Non-blocking WebSocket broadcasting that drops slow clients
//
// For detailed documentation, see the individual package documentation.
package internal
