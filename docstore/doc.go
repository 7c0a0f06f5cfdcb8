// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package docstore is the document store adapter. Every collection is one
// JSON array document that is read and written whole. Backends give
// last-writer-wins semantics and nothing stronger; Updater serializes
// read-modify-write cycles inside one process and WithRetry absorbs transient
// failures.
package docstore
