package main

import (
	"fmt"
	"strings"

	"github.com/nulzo/polymage/internal/cli"
	"github.com/nulzo/polymage/pkg/agent"
	"github.com/nulzo/polymage/pkg/model"
	"github.com/spf13/cobra"
)

var instructCmd = &cobra.Command{
	Use:   "instruct [prompt]",
	Short: "Answer a prompt, or extract JSON with --schema",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInstruct,
}

func init() {
	instructCmd.Flags().StringP("platform", "p", "", "Platform ID (default: first platform serving the model)")
	instructCmd.Flags().StringP("model", "m", "", "Model name")
	instructCmd.Flags().String("system", "", "System prompt")
	instructCmd.Flags().String("schema", "", "JSON schema file; the answer is returned as data")
	instructCmd.Flags().StringArrayP("image", "i", nil, "Image passed along with the prompt (repeatable)")
	instructCmd.Flags().StringArray("param", nil, "Extra parameter as key=value (repeatable)")
	_ = instructCmd.MarkFlagRequired("model")
}

func runInstruct(cmd *cobra.Command, args []string) error {
	platformName, _ := cmd.Flags().GetString("platform")
	modelName, _ := cmd.Flags().GetString("model")
	system, _ := cmd.Flags().GetString("system")
	schemaPath, _ := cmd.Flags().GetString("schema")
	imagePaths, _ := cmd.Flags().GetStringArray("image")
	pairs, _ := cmd.Flags().GetStringArray("param")

	params, err := parseParams(pairs)
	if err != nil {
		return err
	}
	images, err := loadImages(cmd.Context(), imagePaths)
	if err != nil {
		return err
	}

	cfg := agent.Config{Model: modelName, SystemPrompt: system}
	capability := model.Text2Text
	if schemaPath != "" {
		schema, err := loadSchema(schemaPath)
		if err != nil {
			return err
		}
		cfg.ResponseModel = schema
		capability = model.Text2Data
	}

	cfg.Platform, err = resolvePlatform(app.service, platformName, modelName, capability)
	if err != nil {
		return err
	}

	res, err := agent.NewInstructAgent(cfg).Run(cmd.Context(), strings.Join(args, " "), images, params)
	if err != nil {
		return err
	}

	if res.Kind == model.Text2Data {
		cli.PrettyPrint(res.Data)
		return nil
	}
	fmt.Println(res.Text)
	return nil
}
