package main

import (
	"fmt"
	"strings"

	"github.com/nulzo/polymage/internal/cli"
	"github.com/nulzo/polymage/pkg/agent"
	"github.com/nulzo/polymage/pkg/model"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate [prompt]",
	Short: "Generate an image, or edit one with --input",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringP("platform", "p", "", "Platform ID (default: first platform serving the model)")
	generateCmd.Flags().StringP("model", "m", "", "Model name")
	generateCmd.Flags().StringP("input", "i", "", "Input image; switches to image2image")
	generateCmd.Flags().StringP("output", "o", "output.png", "Where to write the PNG")
	generateCmd.Flags().StringArray("param", nil, "Extra parameter as key=value (repeatable)")
	_ = generateCmd.MarkFlagRequired("model")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	platformName, _ := cmd.Flags().GetString("platform")
	modelName, _ := cmd.Flags().GetString("model")
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	pairs, _ := cmd.Flags().GetStringArray("param")

	params, err := parseParams(pairs)
	if err != nil {
		return err
	}

	capability := model.Text2Image
	var paths []string
	if input != "" {
		capability = model.Image2Image
		paths = []string{input}
	}
	images, err := loadImages(cmd.Context(), paths)
	if err != nil {
		return err
	}

	p, err := resolvePlatform(app.service, platformName, modelName, capability)
	if err != nil {
		return err
	}

	a := agent.NewImageGeneratorAgent(agent.Config{Platform: p, Model: modelName})
	res, err := a.Run(cmd.Context(), strings.Join(args, " "), images, params)
	if err != nil {
		return err
	}

	if err := res.Image.SaveToFile(output); err != nil {
		return err
	}
	fmt.Printf("%s %s %s (%dx%d)\n", cli.CheckMark(), cli.Style(string(res.Kind), cli.Cyan), output, res.Image.Width(), res.Image.Height())
	return nil
}
