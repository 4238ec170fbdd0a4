package agent_test

import (
	"context"
	"errors"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/nulzo/polymage/pkg/agent"
	"github.com/nulzo/polymage/pkg/domain"
	"github.com/nulzo/polymage/pkg/media"
	"github.com/nulzo/polymage/pkg/model"
	"github.com/nulzo/polymage/pkg/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPlatform struct {
	mock.Mock
}

func (m *MockPlatform) Text2Text(ctx context.Context, req *platform.Request) (*platform.TextResult, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*platform.TextResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPlatform) Text2Image(ctx context.Context, req *platform.Request) (*media.ImageMedia, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*media.ImageMedia), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPlatform) Image2Text(ctx context.Context, req *platform.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockPlatform) Image2Image(ctx context.Context, req *platform.Request) (*media.ImageMedia, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*media.ImageMedia), args.Error(1)
	}
	return nil, args.Error(1)
}

type Answer struct {
	Answer string `json:"answer"`
}

func image(t *testing.T) *media.ImageMedia {
	t.Helper()
	m, err := media.FromImage(imaging.New(2, 2, color.White), nil)
	require.NoError(t, err)
	return m
}

func TestInstructAgent_SystemPromptWins(t *testing.T) {
	p := new(MockPlatform)
	p.On("Text2Text", mock.Anything, mock.MatchedBy(func(req *platform.Request) bool {
		return req.Model == "gpt-4" &&
			req.Prompt == "What is the capital of France?" &&
			req.Params[platform.ParamSystemPrompt] == "You are a helpful assistant" &&
			req.Params["temperature"] == 0.2 &&
			req.ResponseModel == nil
	})).Return(&platform.TextResult{Kind: model.Text2Text, Text: "Paris"}, nil)

	a := agent.NewInstructAgent(agent.Config{Platform: p, Model: "gpt-4", SystemPrompt: "You are a helpful assistant"})

	callerParams := map[string]any{platform.ParamSystemPrompt: "ignored", "temperature": 0.2}
	res, err := a.Run(context.Background(), "What is the capital of France?", nil, callerParams)
	require.NoError(t, err)
	assert.Equal(t, "Paris", res.Text)
	assert.Equal(t, model.Text2Text, res.Kind)

	// caller's map is not modified
	assert.Equal(t, "ignored", callerParams[platform.ParamSystemPrompt])
	p.AssertExpectations(t)
}

func TestInstructAgent_WithoutSystemPrompt(t *testing.T) {
	p := new(MockPlatform)
	p.On("Text2Text", mock.Anything, mock.MatchedBy(func(req *platform.Request) bool {
		_, set := req.Params[platform.ParamSystemPrompt]
		return !set
	})).Return(&platform.TextResult{Kind: model.Text2Text, Text: "ok"}, nil)

	a := agent.NewInstructAgent(agent.Config{Platform: p, Model: "gpt-4"})
	_, err := a.Run(context.Background(), "hi", nil, nil)
	require.NoError(t, err)
	p.AssertExpectations(t)
}

func TestInstructAgent_ResponseModelAndMedia(t *testing.T) {
	img := image(t)
	p := new(MockPlatform)
	p.On("Text2Text", mock.Anything, mock.MatchedBy(func(req *platform.Request) bool {
		_, ok := req.ResponseModel.(Answer)
		return ok && len(req.Media) == 1 && req.Media[0] == img && req.Kind() == model.Text2Data
	})).Return(&platform.TextResult{Kind: model.Text2Data, Data: map[string]any{"answer": "42"}}, nil)

	a := agent.NewInstructAgent(agent.Config{Platform: p, Model: "m", ResponseModel: Answer{}})
	res, err := a.Run(context.Background(), "q", []*media.ImageMedia{img}, nil)
	require.NoError(t, err)
	assert.Equal(t, "42", res.Data["answer"])
	p.AssertExpectations(t)
}

func TestImageCaptionerAgent(t *testing.T) {
	img := image(t)
	p := new(MockPlatform)
	p.On("Image2Text", mock.Anything, mock.MatchedBy(func(req *platform.Request) bool {
		return req.Model == "llava" && len(req.Media) == 1 && req.Params[platform.ParamSystemPrompt] == "Be terse"
	})).Return("a white square", nil)

	a := agent.NewImageCaptionerAgent(agent.Config{Platform: p, Model: "llava", SystemPrompt: "Be terse"})
	res, err := a.Run(context.Background(), "describe", []*media.ImageMedia{img}, nil)
	require.NoError(t, err)
	assert.Equal(t, model.Image2Text, res.Kind)
	assert.Equal(t, "a white square", res.Text)
	p.AssertExpectations(t)
}

func TestImageCaptionerAgent_PropagatesErrors(t *testing.T) {
	p := new(MockPlatform)
	p.On("Image2Text", mock.Anything, mock.Anything).Return("", domain.InvalidInput("no media"))

	a := agent.NewImageCaptionerAgent(agent.Config{Platform: p, Model: "llava"})
	_, err := a.Run(context.Background(), "describe", nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestImageGeneratorAgent_BranchesOnMedia(t *testing.T) {
	generated, edited, input := image(t), image(t), image(t)

	p := new(MockPlatform)
	p.On("Text2Image", mock.Anything, mock.MatchedBy(func(req *platform.Request) bool {
		return req.Prompt == "a cat" && req.ResponseModel == nil
	})).Return(generated, nil).Once()
	p.On("Image2Image", mock.Anything, mock.MatchedBy(func(req *platform.Request) bool {
		return req.Prompt == "make it blue" && len(req.Media) == 1 && req.Media[0] == input
	})).Return(edited, nil).Once()

	a := agent.NewImageGeneratorAgent(agent.Config{Platform: p, Model: "flux", ResponseModel: Answer{}})

	res, err := a.Run(context.Background(), "a cat", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, model.Text2Image, res.Kind)
	assert.Same(t, generated, res.Image)

	res, err = a.Run(context.Background(), "make it blue", []*media.ImageMedia{input}, nil)
	require.NoError(t, err)
	assert.Equal(t, model.Image2Image, res.Kind)
	assert.Same(t, edited, res.Image)

	p.AssertExpectations(t)
}

func TestImageGeneratorAgent_PropagatesErrors(t *testing.T) {
	want := errors.New("upstream down")
	p := new(MockPlatform)
	p.On("Text2Image", mock.Anything, mock.Anything).Return(nil, want)

	a := agent.NewImageGeneratorAgent(agent.Config{Platform: p, Model: "flux"})
	_, err := a.Run(context.Background(), "x", nil, nil)
	assert.Same(t, want, err)
}

func TestNew(t *testing.T) {
	p := new(MockPlatform)

	for _, kind := range agent.Kinds {
		a, err := agent.New(kind, agent.Config{Platform: p, Model: "m"})
		require.NoError(t, err)
		assert.NotNil(t, a)
	}

	a, _ := agent.New(agent.KindGenerator, agent.Config{Platform: p, Model: "m"})
	assert.IsType(t, &agent.ImageGeneratorAgent{}, a)

	_, err := agent.New("painter", agent.Config{Platform: p, Model: "m"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = agent.New(agent.KindInstruct, agent.Config{Model: "m"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = agent.New(agent.KindInstruct, agent.Config{Platform: p})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
