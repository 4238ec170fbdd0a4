package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nulzo/polymage/internal/bench"
	"github.com/nulzo/polymage/internal/cli"
	"github.com/nulzo/polymage/pkg/domain"
	"github.com/nulzo/polymage/pkg/media"
	"github.com/nulzo/polymage/pkg/model"
	"github.com/spf13/cobra"
)

var benchCmd = &cobra.Command{
	Use:   "bench [prompt]",
	Short: "Load-test a running gateway",
	Long: `Sends one operation at a constant rate to a gateway started with
"polymage serve" and prints latency percentiles and the success ratio.

Example:
  polymage bench --op text2image -p cloudflare -m flux-1-schnell --rate 5 --duration 30s "a red cube"`,
	RunE: runBench,
}

func init() {
	benchCmd.Flags().String("url", "", "Gateway base URL (default: http://localhost:<server.port>)")
	benchCmd.Flags().String("op", string(model.Text2Text), "Operation: text2text, text2image, image2text or image2image")
	benchCmd.Flags().StringP("platform", "p", "", "Platform ID")
	benchCmd.Flags().StringP("model", "m", "", "Model name")
	benchCmd.Flags().StringP("input", "i", "", "Input image for image2text and image2image")
	benchCmd.Flags().Int("rate", 10, "Requests per second")
	benchCmd.Flags().Duration("duration", 10*time.Second, "Duration of the attack")
	benchCmd.Flags().String("api-key", "", "Bearer key (default: first server.api_keys entry)")
	_ = benchCmd.MarkFlagRequired("platform")
	_ = benchCmd.MarkFlagRequired("model")
}

func runBench(cmd *cobra.Command, args []string) error {
	base, _ := cmd.Flags().GetString("url")
	op, _ := cmd.Flags().GetString("op")
	platformName, _ := cmd.Flags().GetString("platform")
	modelName, _ := cmd.Flags().GetString("model")
	input, _ := cmd.Flags().GetString("input")
	rate, _ := cmd.Flags().GetInt("rate")
	duration, _ := cmd.Flags().GetDuration("duration")
	apiKey, _ := cmd.Flags().GetString("api-key")

	if base == "" {
		base = "http://localhost:" + app.cfg.Server.Port
	}
	if apiKey == "" && len(app.cfg.Server.APIKeys) > 0 {
		apiKey = app.cfg.Server.APIKeys[0]
	}

	var image string
	if input != "" {
		images, err := loadImages(cmd.Context(), []string{input})
		if err != nil {
			return err
		}
		if image, err = images[0].ToBase64(media.DefaultFormat); err != nil {
			return err
		}
	}

	body, err := benchBody(model.Capability(op), platformName, modelName, strings.Join(args, " "), image)
	if err != nil {
		return err
	}

	url := strings.TrimRight(base, "/") + "/v1/" + op
	fmt.Fprintf(os.Stderr, "%s %s %s at %d req/s for %s\n", cli.Arrow(), cli.Style("POST", cli.Bold), url, rate, duration)

	report, err := bench.Run(cmd.Context(), bench.Options{
		URL:      url,
		Body:     body,
		APIKey:   apiKey,
		Rate:     rate,
		Duration: duration,
	})
	if err != nil {
		return err
	}
	report.Print(os.Stdout)
	return nil
}

// benchBody builds the request body the gateway expects for op.
func benchBody(op model.Capability, platformName, modelName, prompt, image string) ([]byte, error) {
	body := map[string]any{
		"platform": platformName,
		"model":    modelName,
	}
	switch op {
	case model.Text2Text, model.Text2Image:
		if prompt == "" {
			return nil, domain.InvalidInput("%s needs a prompt", op)
		}
		body["prompt"] = prompt
	case model.Image2Text, model.Image2Image:
		if image == "" {
			return nil, domain.InvalidInput("%s needs --input", op)
		}
		body["image"] = image
		if prompt != "" {
			body["prompt"] = prompt
		}
	default:
		return nil, domain.InvalidInput("cannot bench %q", op)
	}
	return json.Marshal(body)
}
