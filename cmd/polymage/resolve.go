package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/nulzo/polymage/internal/gateway"
	"github.com/nulzo/polymage/pkg/domain"
	"github.com/nulzo/polymage/pkg/media"
	"github.com/nulzo/polymage/pkg/model"
	"github.com/nulzo/polymage/pkg/platform"
)

// resolvePlatform returns the named platform, or with no name the first
// registered platform that serves modelName for capability c.
func resolvePlatform(svc gateway.Service, name, modelName string, c model.Capability) (*platform.Platform, error) {
	if name != "" {
		return svc.Platform(name)
	}
	for _, info := range svc.ListModels(gateway.ModelFilter{Capability: c}) {
		if info.ID == modelName {
			return svc.Platform(info.Platform)
		}
	}
	return nil, fmt.Errorf("%w: no registered platform serves %s for %s", domain.ErrModelNotFound, modelName, c)
}

// parseParams turns repeated key=value flags into request params. Values
// that parse as JSON keep their type, anything else is a string.
func parseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, domain.InvalidInput("param %q is not key=value", pair)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		params[key] = v
	}
	return params, nil
}

// loadImages reads each path or http(s) URL as an image, restoring PNG
// text metadata.
func loadImages(ctx context.Context, paths []string) ([]*media.ImageMedia, error) {
	images := make([]*media.ImageMedia, 0, len(paths))
	for _, p := range paths {
		var (
			img *media.ImageMedia
			err error
		)
		if media.IsURL(p) {
			img, err = media.FromURL(ctx, nil, p)
		} else {
			img, err = media.FromFile(p)
		}
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", p, err)
		}
		images = append(images, img)
	}
	return images, nil
}

// loadSchema reads a JSON schema document used as the response model.
func loadSchema(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, domain.InvalidInput("%s is not valid JSON", path)
	}
	return json.RawMessage(data), nil
}
