package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/nulzo/polymage/internal/cli"
	"github.com/nulzo/polymage/internal/gateway"
	"github.com/nulzo/polymage/pkg/model"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models on the configured platforms",
	RunE:  runModels,
}

func init() {
	modelsCmd.Flags().StringP("platform", "p", "", "Only list models of this platform")
	modelsCmd.Flags().StringP("capability", "c", "", "Only list models supporting this capability")
	modelsCmd.Flags().Bool("json", false, "Print JSON instead of a table")
}

func runModels(cmd *cobra.Command, args []string) error {
	platformName, _ := cmd.Flags().GetString("platform")
	capability, _ := cmd.Flags().GetString("capability")
	asJSON, _ := cmd.Flags().GetBool("json")

	models := app.service.ListModels(gateway.ModelFilter{
		Platform:   platformName,
		Capability: model.Capability(capability),
	})

	if asJSON {
		if models == nil {
			models = []gateway.ModelInfo{}
		}
		cli.PrettyPrint(models)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, cli.Style("PLATFORM\tMODEL\tCAPABILITIES\tOUTPUT", cli.Bold))
	for _, m := range models {
		caps := make([]string, len(m.Capabilities))
		for i, c := range m.Capabilities {
			caps[i] = string(c)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Platform, m.ID, strings.Join(caps, ","), m.OutputType)
	}
	return w.Flush()
}
