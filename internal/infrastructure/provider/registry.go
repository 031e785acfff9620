package provider

import (
	"github.com/kirillkom/facade-estimator/internal/core/domain"
	"github.com/kirillkom/facade-estimator/internal/core/ports"
)

// Settings is the operator's choice, resolved once from configuration.
type Settings struct {
	Text          domain.TextProvider
	Image         domain.ImageProvider
	ImageFallback domain.ImageProvider
}

type textEntry struct {
	completer  ports.TextCompleter
	configured bool
}

type imageEntry struct {
	generator  ports.ImageGenerator
	configured bool
}

// Registry maps provider tags to adapters. It is built at startup and only
// read afterwards.
type Registry struct {
	settings Settings
	text     map[domain.TextProvider]textEntry
	image    map[domain.ImageProvider]imageEntry
}

func NewRegistry(settings Settings) *Registry {
	return &Registry{
		settings: settings,
		text:     make(map[domain.TextProvider]textEntry),
		image:    make(map[domain.ImageProvider]imageEntry),
	}
}

func (r *Registry) RegisterText(tag domain.TextProvider, completer ports.TextCompleter, configured bool) *Registry {
	r.text[tag] = textEntry{completer: completer, configured: configured && completer != nil}
	return r
}

func (r *Registry) RegisterImage(tag domain.ImageProvider, generator ports.ImageGenerator, configured bool) *Registry {
	r.image[tag] = imageEntry{generator: generator, configured: configured && generator != nil}
	return r
}

func (r *Registry) Settings() Settings {
	return r.settings
}

func (r *Registry) SelectText() ports.TextSelection {
	tag := r.settings.Text
	if tag == domain.TextProviderNone {
		return ports.TextSelection{Provider: tag, Configured: true}
	}
	entry, ok := r.text[tag]
	if !ok {
		return ports.TextSelection{Provider: tag}
	}
	return ports.TextSelection{Provider: tag, Completer: entry.completer, Configured: entry.configured}
}

func (r *Registry) SelectImage() ports.ImageSelection {
	return r.imageSelection(r.settings.Image)
}

// ImageFallback returns the secondary image provider when one is set, differs
// from the primary and has its credentials.
func (r *Registry) ImageFallback() (ports.ImageSelection, bool) {
	tag := r.settings.ImageFallback
	if tag == domain.ImageProviderNone || tag == r.settings.Image {
		return ports.ImageSelection{}, false
	}
	sel := r.imageSelection(tag)
	return sel, sel.Usable()
}

func (r *Registry) imageSelection(tag domain.ImageProvider) ports.ImageSelection {
	entry, ok := r.image[tag]
	if !ok {
		return ports.ImageSelection{Provider: tag}
	}
	return ports.ImageSelection{Provider: tag, Generator: entry.generator, Configured: entry.configured}
}

func (r *Registry) IsTextConfigured(tag domain.TextProvider) bool {
	if tag == domain.TextProviderNone {
		return true
	}
	return r.text[tag].configured
}

func (r *Registry) IsImageConfigured(tag domain.ImageProvider) bool {
	return r.image[tag].configured
}

// Status is the read model served by the providers endpoint.
type Status struct {
	Text          domain.TextProvider  `json:"text"`
	TextLocal     bool                 `json:"textLocal"`
	Image         domain.ImageProvider `json:"image"`
	ImageFallback domain.ImageProvider `json:"imageFallback,omitempty"`
	Configured    map[string]bool      `json:"configured"`
}

func (r *Registry) Status() Status {
	configured := make(map[string]bool, len(r.text)+len(r.image))
	for tag, entry := range r.text {
		configured["text:"+string(tag)] = entry.configured
	}
	for tag, entry := range r.image {
		configured["image:"+string(tag)] = entry.configured
	}
	return Status{
		Text:          r.settings.Text,
		TextLocal:     r.SelectText().Local(),
		Image:         r.settings.Image,
		ImageFallback: r.settings.ImageFallback,
		Configured:    configured,
	}
}
