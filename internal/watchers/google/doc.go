// Package google provides shared plumbing for the Google-backed watchers:
// service construction, rate limiting and API error classification.
package google
