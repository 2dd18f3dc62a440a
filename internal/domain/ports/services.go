package ports

import "context"

// Translator is the external AI subtitle translation service.
type Translator interface {
	Translate(ctx context.Context, subtitleText, targetLanguage string) (string, error)
}

// Synchronizer is the external AI subtitle re-timing service.
type Synchronizer interface {
	Synchronize(ctx context.Context, subtitleText, format string) (string, error)
}

// TextFetcher retrieves raw subtitle text when it is not already held locally.
type TextFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// Navigator receives the up-next completion signal.
type Navigator interface {
	NavigateNext(contentID string, autoplay bool)
}
