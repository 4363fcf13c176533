// Package scan runs synthetic scans and applies edits to stored reports.
//
// Orchestrator turns a Request into a report: it consults the result cache,
// fabricates a fresh report on a miss, caches it and saves it to the store.
// Service wraps the store for the edit, rename, finalize, narrative, import
// and delete operations, none of which touch the cache.
package scan
