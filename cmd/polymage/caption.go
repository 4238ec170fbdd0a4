package main

import (
	"fmt"

	"github.com/nulzo/polymage/pkg/agent"
	"github.com/nulzo/polymage/pkg/model"
	"github.com/spf13/cobra"
)

var captionCmd = &cobra.Command{
	Use:   "caption [prompt]",
	Short: "Describe an image",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCaption,
}

func init() {
	captionCmd.Flags().StringP("platform", "p", "", "Platform ID (default: first platform serving the model)")
	captionCmd.Flags().StringP("model", "m", "", "Model name")
	captionCmd.Flags().StringP("image", "i", "", "Image to describe")
	captionCmd.Flags().String("system", "", "System prompt")
	captionCmd.Flags().StringArray("param", nil, "Extra parameter as key=value (repeatable)")
	_ = captionCmd.MarkFlagRequired("model")
	_ = captionCmd.MarkFlagRequired("image")
}

func runCaption(cmd *cobra.Command, args []string) error {
	platformName, _ := cmd.Flags().GetString("platform")
	modelName, _ := cmd.Flags().GetString("model")
	imagePath, _ := cmd.Flags().GetString("image")
	system, _ := cmd.Flags().GetString("system")
	pairs, _ := cmd.Flags().GetStringArray("param")

	params, err := parseParams(pairs)
	if err != nil {
		return err
	}
	images, err := loadImages(cmd.Context(), []string{imagePath})
	if err != nil {
		return err
	}
	p, err := resolvePlatform(app.service, platformName, modelName, model.Image2Text)
	if err != nil {
		return err
	}

	prompt := "Describe this image."
	if len(args) == 1 {
		prompt = args[0]
	}

	a := agent.NewImageCaptionerAgent(agent.Config{Platform: p, Model: modelName, SystemPrompt: system})
	res, err := a.Run(cmd.Context(), prompt, images, params)
	if err != nil {
		return err
	}
	fmt.Println(res.Text)
	return nil
}
