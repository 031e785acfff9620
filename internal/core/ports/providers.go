package ports

import "github.com/kirillkom/facade-estimator/internal/core/domain"

// TextSelection describes which text backend to call. Completer is nil for
// TextProviderNone and for unconfigured providers.
type TextSelection struct {
	Provider   domain.TextProvider
	Completer  TextCompleter
	Configured bool
}

// Local reports whether the analysis must be produced without a provider.
func (s TextSelection) Local() bool {
	return s.Provider == domain.TextProviderNone || !s.Configured || s.Completer == nil
}

type ImageSelection struct {
	Provider   domain.ImageProvider
	Generator  ImageGenerator
	Configured bool
}

func (s ImageSelection) Usable() bool {
	return s.Configured && s.Generator != nil
}

// ProviderSelector resolves the configured backends.
type ProviderSelector interface {
	SelectText() TextSelection
	SelectImage() ImageSelection
	ImageFallback() (ImageSelection, bool)
}
