package usecase

import (
	"context"
	"encoding/base64"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/facade-estimator/internal/core/domain"
	"github.com/kirillkom/facade-estimator/internal/core/fallback"
	"github.com/kirillkom/facade-estimator/internal/core/ports"
)

type TransformUseCase struct {
	selector  ports.ProviderSelector
	materials ports.MaterialLibrary
	mock      bool
	observer  ProviderObserver
	onFall    fallback.NotifyFunc
}

func NewTransformUseCase(selector ports.ProviderSelector, materials ports.MaterialLibrary, mock bool) *TransformUseCase {
	return &TransformUseCase{
		selector:  selector,
		materials: materials,
		mock:      mock,
		observer:  noopObserver{},
	}
}

func (uc *TransformUseCase) WithObserver(observer ProviderObserver) *TransformUseCase {
	if observer != nil {
		uc.observer = observer
	}
	return uc
}

func (uc *TransformUseCase) WithFallbackObserver(fn fallback.NotifyFunc) *TransformUseCase {
	uc.onFall = fn
	return uc
}

// Transform returns the after-image, or nil when none is available yet.
// A verification failure at the primary provider moves on to the configured
// fallback provider; every other failure is final.
func (uc *TransformUseCase) Transform(ctx context.Context, sel domain.ProjectSelection, img *domain.UploadedImage) (*domain.GeneratedImage, error) {
	sel, err := sel.Normalize()
	if err != nil {
		return nil, toFailure("image", err)
	}
	if img == nil || len(img.Data) == 0 {
		return nil, domain.NewFailure(domain.ErrInvalidInput, "Upload a photo of the facade to see the visualization.", "")
	}
	if uc.mock {
		return nil, nil
	}

	primary := uc.selector.SelectImage()
	if !primary.Usable() {
		return nil, toFailure("image", domain.WrapError(domain.ErrConfiguration, "image provider "+string(primary.Provider), errNotConfigured))
	}

	req, err := uc.buildRequest(ctx, sel, img)
	if err != nil {
		return nil, toFailure("image", err)
	}

	alternatives := []fallback.Alternative[*domain.GeneratedImage]{uc.alternative(primary, req)}
	if secondary, ok := uc.selector.ImageFallback(); ok {
		alternatives = append(alternatives, uc.alternative(secondary, req))
	}

	out, err := fallback.FirstSuccess(ctx, alternatives, fallbackOnVerification, uc.onFall)
	if err != nil {
		return nil, toFailure("image", err)
	}
	if out.Empty() {
		return nil, nil
	}
	return out, nil
}

func fallbackOnVerification(_ *domain.GeneratedImage, err error) bool {
	return domain.IsKind(err, domain.ErrVerificationRequired)
}

func (uc *TransformUseCase) alternative(sel ports.ImageSelection, req domain.ImageRequest) fallback.Alternative[*domain.GeneratedImage] {
	return fallback.Alternative[*domain.GeneratedImage]{
		Name: string(sel.Provider),
		Run: func(ctx context.Context) (*domain.GeneratedImage, error) {
			started := time.Now()
			out, err := sel.Generator.Generate(ctx, req)
			uc.observer.ObserveProviderCall("image", string(sel.Provider), outcomeOf(err), time.Since(started))
			return out, err
		},
	}
}

// buildRequest encodes the photo and loads the material reference
// concurrently; both must finish before the provider call.
func (uc *TransformUseCase) buildRequest(ctx context.Context, sel domain.ProjectSelection, img *domain.UploadedImage) (domain.ImageRequest, error) {
	var (
		photoB64 string
		ref      *domain.MaterialReference
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		photoB64 = base64.StdEncoding.EncodeToString(img.Data)
		return nil
	})
	if uc.materials != nil {
		g.Go(func() error {
			r, err := uc.materials.Reference(gctx, sel.PrimaryFinish())
			if err != nil {
				// The reference only improves the result; go on without it.
				slog.Warn("material_reference_unavailable", "finish", sel.PrimaryFinish(), "error", err)
				return nil
			}
			ref = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.ImageRequest{}, err
	}

	req := domain.ImageRequest{
		ImageBase64:   photoB64,
		ImageMIMEType: img.MIMEType,
		Size:          domain.DefaultImageSize,
		Selection:     sel,
	}
	if ref != nil && len(ref.Data) > 0 {
		req.ReferenceBase64 = base64.StdEncoding.EncodeToString(ref.Data)
		req.ReferenceMIMEType = ref.MIMEType
	}
	req.Prompt = BuildImagePrompt(sel, req.HasReference())
	return req, nil
}
