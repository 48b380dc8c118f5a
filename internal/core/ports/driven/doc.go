// Package driven defines the outbound ports of the sync core: interfaces
// the orchestrator depends on and adapters implement (source watchers,
// text extractors, the language service, the remote store client and the
// persistence stores).
package driven
