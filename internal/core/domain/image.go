package domain

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// UploadedImage is the homeowner's facade photo. It lives only for one request.
type UploadedImage struct {
	Data     []byte
	MIMEType string
}

// MaterialReference is a bundled sample photo of a finish.
type MaterialReference struct {
	Finish   Finish
	Data     []byte
	MIMEType string
}

// GeneratedImage is the after-image; exactly one of Base64 and URL is set.
type GeneratedImage struct {
	Base64   string        `json:"base64,omitempty"`
	URL      string        `json:"url,omitempty"`
	MIMEType string        `json:"mimeType,omitempty"`
	Provider ImageProvider `json:"provider"`
}

func (g *GeneratedImage) Empty() bool {
	return g == nil || (g.Base64 == "" && g.URL == "")
}

type ImageStatus string

const (
	ImageReady   ImageStatus = "ready"
	ImagePending ImageStatus = "pending"
	ImageFailed  ImageStatus = "failed"
)

// DecodeUploadedImage accepts raw base64 or a data URI and sniffs the MIME type
// when the caller did not send one.
func DecodeUploadedImage(encoded, mimeType string) (*UploadedImage, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, nil
	}
	if strings.HasPrefix(encoded, "data:") {
		comma := strings.Index(encoded, ",")
		if comma < 0 {
			return nil, WrapError(ErrInvalidInput, "decode image", fmt.Errorf("malformed data uri"))
		}
		header := encoded[len("data:"):comma]
		if mimeType == "" {
			mimeType = strings.TrimSuffix(header, ";base64")
		}
		encoded = encoded[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, WrapError(ErrInvalidInput, "decode image", err)
	}
	if len(data) == 0 {
		return nil, WrapError(ErrInvalidInput, "decode image", fmt.Errorf("empty image"))
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, WrapError(ErrInvalidInput, "decode image", fmt.Errorf("unsupported content type %q", mimeType))
	}
	return &UploadedImage{Data: data, MIMEType: mimeType}, nil
}
