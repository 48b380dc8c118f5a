// Package extractors provides implementations of the TextExtractor
// interface for the supported document formats. Each extractor knows how
// to produce normalised plain text from one format's raw bytes.
//
// Extractors are registered with the Registry at startup.
package extractors
