package media

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/nulzo/polymage/pkg/domain"
)

// DefaultFormat is the container used whenever a caller does not ask for one.
const DefaultFormat = imaging.PNG

// Standard metadata keys attached to generated images.
const (
	MetaSoftware    = "Software"
	MetaDescription = "Description"
)

// ImageMedia wraps a decoded bitmap and optional string metadata. Some
// adapters resize the wrapped bitmap in place before encoding it.
type ImageMedia struct {
	image    image.Image
	metadata map[string]string
}

// New builds an ImageMedia from a base64 string, raw encoded bytes or a
// decoded image.Image. The input kind is detected from its type.
func New(src any, metadata map[string]string) (*ImageMedia, error) {
	switch v := src.(type) {
	case string:
		return FromBase64(v, metadata)
	case []byte:
		return FromBytes(v, metadata)
	case image.Image:
		return FromImage(v, metadata)
	case *ImageMedia:
		if v == nil {
			return nil, domain.InvalidInput("image source is nil")
		}
		return FromImage(v.image, mergeMetadata(v.metadata, metadata))
	default:
		return nil, domain.InvalidInput("image source must be base64 text, bytes or image.Image, got %T", src)
	}
}

func FromImage(img image.Image, metadata map[string]string) (*ImageMedia, error) {
	if img == nil {
		return nil, domain.InvalidInput("image is nil")
	}
	return &ImageMedia{image: img, metadata: cloneMetadata(metadata)}, nil
}

func FromBytes(data []byte, metadata map[string]string) (*ImageMedia, error) {
	img, err := BytesToImage(data)
	if err != nil {
		return nil, err
	}
	return &ImageMedia{image: img, metadata: cloneMetadata(metadata)}, nil
}

func FromBase64(encoded string, metadata map[string]string) (*ImageMedia, error) {
	img, err := Base64ToImage(encoded)
	if err != nil {
		return nil, err
	}
	return &ImageMedia{image: img, metadata: cloneMetadata(metadata)}, nil
}

// FromFile loads an image from disk. PNG text chunks are restored as
// metadata.
func FromFile(path string) (*ImageMedia, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image file: %w", err)
	}
	return fromEncoded(data)
}

func fromEncoded(data []byte) (*ImageMedia, error) {
	m, err := FromBytes(data, nil)
	if err != nil {
		return nil, err
	}

	if mimetype.Detect(data).Is("image/png") {
		if text, err := ReadPNGText(bytes.NewReader(data)); err == nil && len(text) > 0 {
			m.metadata = text
		}
	}
	return m, nil
}

// Image returns the wrapped bitmap.
func (m *ImageMedia) Image() image.Image { return m.image }

func (m *ImageMedia) Width() int { return m.image.Bounds().Dx() }

func (m *ImageMedia) Height() int { return m.image.Bounds().Dy() }

// Metadata returns a copy of the metadata, nil when none was attached.
func (m *ImageMedia) Metadata() map[string]string {
	return cloneMetadata(m.metadata)
}

func (m *ImageMedia) SetMetadata(key, value string) {
	if m.metadata == nil {
		m.metadata = make(map[string]string)
	}
	m.metadata[key] = value
}

// ToBytes encodes the bitmap in the given container format.
func (m *ImageMedia) ToBytes(format imaging.Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, m.image, format); err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

// ToBase64 encodes the bitmap and returns it as standard base64 text.
func (m *ImageMedia) ToBase64(format imaging.Format) (string, error) {
	data, err := m.ToBytes(format)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DataURI returns the bitmap as a data: URI, the shape vision endpoints expect.
func (m *ImageMedia) DataURI(format imaging.Format) (string, error) {
	encoded, err := m.ToBase64(format)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType(format), encoded), nil
}

// SaveToFile writes the bitmap as PNG, embedding metadata as text chunks.
func (m *ImageMedia) SaveToFile(path string) error {
	data, err := m.ToBytes(imaging.PNG)
	if err != nil {
		return err
	}

	if len(m.metadata) > 0 {
		data, err = EmbedPNGText(data, m.metadata)
		if err != nil {
			return err
		}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write image file: %w", err)
	}
	return nil
}

// Base64ToImage decodes base64 text (optionally a data: URI) into a bitmap.
func Base64ToImage(encoded string) (image.Image, error) {
	payload, err := stripDataURI(strings.TrimSpace(encoded))
	if err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, domain.InvalidInput("decode base64 image: %v", err)
	}
	return BytesToImage(data)
}

// BytesToImage decodes encoded image bytes into a bitmap.
func BytesToImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, domain.InvalidInput("image data is empty")
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, domain.InvalidInput("data is not an image (detected %s)", mt.String())
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, domain.InvalidInput("decode %s: %v", mt.String(), err)
	}
	return img, nil
}

// ImageToBase64 encodes a bitmap to base64 text in the given format.
func ImageToBase64(img image.Image, format imaging.Format) (string, error) {
	m, err := FromImage(img, nil)
	if err != nil {
		return "", err
	}
	return m.ToBase64(format)
}

// stripDataURI accepts data:[<media type>][;base64],<data> and returns the payload.
func stripDataURI(uri string) (string, error) {
	if !strings.HasPrefix(uri, "data:") {
		return uri, nil
	}

	comma := strings.Index(uri, ",")
	if comma == -1 {
		return "", domain.InvalidInput("invalid data URI")
	}

	if !strings.Contains(uri[:comma], ";base64") {
		return "", domain.InvalidInput("only base64 data URIs are supported for images")
	}
	return uri[comma+1:], nil
}

func mimeType(format imaging.Format) string {
	switch format {
	case imaging.JPEG:
		return "image/jpeg"
	case imaging.GIF:
		return "image/gif"
	case imaging.TIFF:
		return "image/tiff"
	case imaging.BMP:
		return "image/bmp"
	default:
		return "image/png"
	}
}

func cloneMetadata(md map[string]string) map[string]string {
	if md == nil {
		return nil
	}
	return maps.Clone(md)
}

func mergeMetadata(base, overlay map[string]string) map[string]string {
	if base == nil && overlay == nil {
		return nil
	}
	out := make(map[string]string, len(base)+len(overlay))
	maps.Copy(out, base)
	maps.Copy(out, overlay)
	return out
}
