package blobstore

import (
	"encoding/base64"
	"mime"
	"strings"

	"expensetracker/internal/core"
)

// Format is a receipt image encoding the store accepts.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
	FormatGIF  Format = "gif"
)

// Extension returns the file extension, without the dot.
func (f Format) Extension() string {
	return string(f)
}

var formatsByMediaType = map[string]Format{
	"image/jpeg": FormatJPEG,
	"image/jpg":  FormatJPEG,
	"image/png":  FormatPNG,
	"image/webp": FormatWebP,
	"image/gif":  FormatGIF,
}

// Payload is the result of parsing an encoded receipt: either an Image ready
// to be written or an Unsupported media type.
type Payload interface {
	payload()
}

type Image struct {
	Format Format
	Data   []byte
}

type Unsupported struct {
	Tag string
}

func (Image) payload()       {}
func (Unsupported) payload() {}

// ParsePayload decodes "[data:]<media-type>;base64,<payload>". Malformed
// input is a validation error; a well-formed payload of a media type we do
// not store is returned as Unsupported so callers can report the tag.
func ParsePayload(encoded string) (Payload, error) {
	encoded = strings.TrimSpace(encoded)
	encoded = strings.TrimPrefix(encoded, "data:")

	header, body, ok := strings.Cut(encoded, ",")
	if !ok {
		return nil, core.NewError(core.CodeValidation, "image data must be of the form <media-type>;base64,<data>")
	}

	mediaType, isBase64 := parseHeader(header)
	if mediaType == "" {
		return nil, core.NewError(core.CodeValidation, "image data is missing a media type")
	}
	if !isBase64 {
		return nil, core.Errorf(core.CodeValidation, "image data for %s must be base64 encoded", mediaType)
	}

	format, supported := formatsByMediaType[mediaType]
	if !supported {
		return Unsupported{Tag: mediaType}, nil
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(body))
	if err != nil {
		return nil, core.WrapError(core.CodeValidation, "image data is not valid base64", err)
	}
	if len(data) == 0 {
		return nil, core.NewError(core.CodeValidation, "image data is empty")
	}
	return Image{Format: format, Data: data}, nil
}

// parseHeader splits "image/png;base64" (optionally with extra parameters)
// into the lower-cased media type and whether the base64 marker is present.
func parseHeader(header string) (string, bool) {
	parts := strings.Split(header, ";")
	isBase64 := false
	kept := []string{parts[0]}
	for _, p := range parts[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
			continue
		}
		kept = append(kept, p)
	}

	mediaType, _, err := mime.ParseMediaType(strings.Join(kept, ";"))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(parts[0])), isBase64
	}
	return mediaType, isBase64
}
