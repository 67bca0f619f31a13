package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"lambda-http-router/examples/routes"
	"lambda-http-router/internal/config"
	"lambda-http-router/pkg/manifest"
	"lambda-http-router/pkg/server"
)

var errDrift = errors.New("route manifest is out of date")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, errDrift) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "manifest",
		Short:        "Generate and verify the API Gateway route manifest",
		SilenceUsage: true,
	}
	root.AddCommand(newEmitCmd(), newCheckCmd())
	return root
}

func buildManifest() (*manifest.Manifest, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	table, err := server.BuildTable(cfg, routes.New().Register)
	if err != nil {
		return nil, nil, err
	}
	return manifest.Build(table), cfg, nil
}

func newEmitCmd() *cobra.Command {
	var out, format string

	cmd := &cobra.Command{
		Use:   "emit",
		Short: "Write the manifest for the registered routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, cfg, err := buildManifest()
			if err != nil {
				return err
			}

			if out == "-" {
				if format == "" {
					format = manifest.FormatJSON
				}
				return manifest.Encode(cmd.OutOrStdout(), m, format)
			}

			if out == "" {
				out = cfg.Routes.ManifestFile
			}
			if format != "" && format != manifest.FormatFor(out) {
				return fmt.Errorf("format %q does not match file extension of %s", format, out)
			}
			if err := manifest.Write(out, m); err != nil {
				return err
			}

			logrus.WithFields(logrus.Fields{
				"file":   out,
				"routes": len(m.Routes),
				"events": len(m.Events),
			}).Info("Route manifest written")
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", `output file, "-" for stdout (default MANIFEST_FILE)`)
	cmd.Flags().StringVarP(&format, "format", "f", "", "json or yaml (default from the file extension)")
	return cmd
}

func newCheckCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Fail when the manifest on disk differs from the registered routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			desired, cfg, err := buildManifest()
			if err != nil {
				return err
			}
			if file == "" {
				file = cfg.Routes.ManifestFile
			}

			current, err := manifest.Load(file)
			if err != nil {
				return err
			}

			changes := manifest.Diff(current, desired)
			if len(changes) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is up to date (%d routes)\n", file, len(desired.Routes))
				return nil
			}

			for _, change := range changes {
				fmt.Fprintln(cmd.OutOrStdout(), change.String())
			}
			return fmt.Errorf("%w: %d change(s) in %s", errDrift, len(changes), file)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "manifest to check (default MANIFEST_FILE)")
	return cmd
}
