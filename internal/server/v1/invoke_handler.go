package v1

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/polymage/internal/server/middleware"
	"github.com/nulzo/polymage/internal/server/validator"
	"github.com/nulzo/polymage/pkg/agent"
	"github.com/nulzo/polymage/pkg/media"
)

func (h *Handler) HandleText2Text(c *gin.Context) {
	var req Text2TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(validator.Problem(err))
		return
	}

	images, err := decodeImages(req.Images)
	if err != nil {
		_ = c.Error(err)
		return
	}

	cfg := agent.Config{Model: req.Model, SystemPrompt: req.SystemPrompt}
	if len(req.Schema) > 0 && !bytes.Equal(bytes.TrimSpace(req.Schema), []byte("null")) {
		cfg.ResponseModel = json.RawMessage(req.Schema)
	}

	res, err := h.run(c, agent.KindInstruct, req.target(), cfg, req.Prompt, images, req.Params)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, TextResponse{
		Platform: req.Platform,
		Model:    req.Model,
		Kind:     res.Kind,
		Text:     res.Text,
		Data:     res.Data,
	})
}

func (h *Handler) HandleText2Image(c *gin.Context) {
	var req Text2ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(validator.Problem(err))
		return
	}

	res, err := h.run(c, agent.KindGenerator, req.target(), agent.Config{Model: req.Model}, req.Prompt, nil, req.Params)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.writeImage(c, req.target(), res)
}

func (h *Handler) HandleImage2Text(c *gin.Context) {
	var req Image2TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(validator.Problem(err))
		return
	}

	images, err := decodeImages([]string{req.Image})
	if err != nil {
		_ = c.Error(err)
		return
	}

	cfg := agent.Config{Model: req.Model, SystemPrompt: req.SystemPrompt}
	res, err := h.run(c, agent.KindCaptioner, req.target(), cfg, req.Prompt, images, req.Params)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, TextResponse{
		Platform: req.Platform,
		Model:    req.Model,
		Kind:     res.Kind,
		Text:     res.Text,
	})
}

func (h *Handler) HandleImage2Image(c *gin.Context) {
	var req Image2ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(validator.Problem(err))
		return
	}

	images, err := decodeImages([]string{req.Image})
	if err != nil {
		_ = c.Error(err)
		return
	}

	res, err := h.run(c, agent.KindGenerator, req.target(), agent.Config{Model: req.Model}, req.Prompt, images, req.Params)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.writeImage(c, req.target(), res)
}

// run binds an agent of kind to the requested platform and runs it with the
// request context.
func (h *Handler) run(c *gin.Context, kind string, target Target, cfg agent.Config, prompt string, images []*media.ImageMedia, params map[string]any) (*agent.Result, error) {
	c.Set(middleware.PlatformKey, target.Platform)
	c.Set(middleware.ModelKey, target.Model)

	p, err := h.service.Platform(target.Platform)
	if err != nil {
		return nil, err
	}
	cfg.Platform = p

	a, err := agent.New(kind, cfg)
	if err != nil {
		return nil, err
	}
	res, err := a.Run(c.Request.Context(), prompt, images, params)
	if err != nil {
		return nil, err
	}
	c.Set(middleware.CapabilityKey, string(res.Kind))
	return res, nil
}

func (h *Handler) writeImage(c *gin.Context, target Target, res *agent.Result) {
	encoded, err := res.Image.ToBase64(media.DefaultFormat)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ImageResponse{
		Platform: target.Platform,
		Model:    target.Model,
		Kind:     res.Kind,
		Image:    encoded,
		Width:    res.Image.Width(),
		Height:   res.Image.Height(),
		Metadata: res.Image.Metadata(),
	})
}

func decodeImages(encoded []string) ([]*media.ImageMedia, error) {
	if len(encoded) == 0 {
		return nil, nil
	}
	images := make([]*media.ImageMedia, 0, len(encoded))
	for _, s := range encoded {
		img, err := media.New(s, nil)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}
