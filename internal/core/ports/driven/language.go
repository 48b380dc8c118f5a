package driven

import "context"

// LanguageService detects the language of extracted text and translates it
// when it differs from the configured target. Detection on very short or
// ambiguous text returns domain.LanguageUnknown, in which case the caller
// skips translation and uses the original text.
type LanguageService interface {
	// Detect returns the ISO 639-1 language code for the text, or
	// domain.LanguageUnknown when classification is not reliable.
	Detect(ctx context.Context, text string) (string, error)

	// Translate converts text from source to target language. Never
	// called when source equals target. Failures (quota, auth,
	// unsupported pair) surface as a domain.TranslationError.
	Translate(ctx context.Context, text, source, target string) (string, error)
}
