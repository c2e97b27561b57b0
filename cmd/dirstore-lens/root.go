package main

import (
	"os"

	"github.com/nspcc-dev/dirstore/cmd/dirstore-lens/internal/container"
	"github.com/nspcc-dev/dirstore/cmd/dirstore-lens/internal/storage"
	"github.com/nspcc-dev/dirstore/cmd/internal/cmderr"
	"github.com/nspcc-dev/dirstore/misc"
	"github.com/spf13/cobra"
)

var command = &cobra.Command{
	Use:           "dirstore-lens",
	Short:         "Directory storage lens",
	Long:          `Directory storage lens provides tools to browse and maintain the contents of a directory storage.`,
	RunE:          entryPoint,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func entryPoint(cmd *cobra.Command, _ []string) error {
	printVersion, _ := cmd.Flags().GetBool("version")
	if printVersion {
		cmd.Print(misc.BuildInfo("Dirstore Lens"))

		return nil
	}

	return cmd.Usage()
}

func init() {
	// use stdout as default output for cmd.Print()
	command.SetOut(os.Stdout)
	command.Flags().Bool("version", false, "Application version")
	command.AddCommand(
		storage.Root,
		container.Root,
	)
}

func main() {
	err := command.Execute()
	cmderr.ExitOnErr(err)
}
