package main

import (
	"os"

	"github.com/brettbedarf/embedfs/adapters"
	"github.com/brettbedarf/embedfs/image"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var infoCmd = &cobra.Command{
	Use:   "info <bundle>",
	Short: "Print a bundle header as YAML",
	Long:  `Info decodes and verifies a bundle file, or the embedded bundle when given "embedded", and prints its header.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			b   *image.Bundle
			err error
		)
		if providerType, location := registry.Resolve(args[0]); providerType == adapters.EmbeddedProviderType {
			b, err = image.Embedded()
		} else {
			var data []byte
			if data, err = os.ReadFile(location); err == nil {
				b, err = image.DecodeBundle(data)
			}
		}
		if err != nil {
			return err
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		defer enc.Close()
		return enc.Encode(b.Header)
	},
}
