package deploy

import (
	"fmt"
	"os"

	"github.com/navikt/deployment-cli/internal/cli/common"
	"github.com/navikt/deployment-cli/pkg/printer"
	"github.com/spf13/cobra"
)

type payloadOptions struct {
	outputFile string
	format     string
}

func newPayloadCmd(app *common.App) *cobra.Command {
	opts := &payloadOptions{}
	cmd := &cobra.Command{
		Use:   "payload",
		Short: "Print the deployment request without sending it",
		Long: `Templates the deployment payload for the GitHub deployment API.
Useful for manual curl calls and debugging.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPayload(app, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.outputFile, "outputfile", "o", "", "File to write to, stdout when omitted")
	cmd.Flags().StringVar(&opts.format, "format", "json", "Output format (json, yaml)")
	return cmd
}

func runPayload(app *common.App, opts *payloadOptions) error {
	format, err := printer.ParseOutputType(opts.format)
	if err != nil || format == printer.OutputTypeTable {
		return fmt.Errorf("unsupported payload format %q, expected json or yaml", opts.format)
	}

	request, err := app.Template.BuildRequest()
	if err != nil {
		return err
	}

	p := printer.New(format)
	p.SetOutput(app.Out)
	if opts.outputFile != "" {
		f, err := os.Create(opts.outputFile)
		if err != nil {
			return fmt.Errorf("unable to create output file %s: %w", opts.outputFile, err)
		}
		defer f.Close()
		p.SetOutput(f)
	}

	if err := p.Print(request); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}
	app.Logger("deploy").Debug("wrote deployment payload", "resources", len(request.Payload.Kubernetes.Resources), "format", format)
	if opts.outputFile != "" {
		printer.PrintInfo(app.Err, fmt.Sprintf("Wrote deployment payload to %s", opts.outputFile))
	}
	return nil
}
