package storage

import (
	common "github.com/nspcc-dev/dirstore/cmd/dirstore-lens/internal"
	"github.com/spf13/cobra"
)

var initCMD = &cobra.Command{
	Use:   "init",
	Short: "Create an empty storage",
	Long:  "Create an empty storage in the directory, files of the previous storage are overwritten",
	Args:  cobra.NoArgs,
	RunE:  initFunc,
}

func init() {
	addStorageFlags(initCMD)
}

func initFunc(cmd *cobra.Command, _ []string) error {
	s, err := common.CreateStorage(storagePrm(false))
	if err != nil {
		return err
	}
	defer common.CloseStorage(cmd, s)

	info, err := s.Info()
	if err != nil {
		return common.Errf("could not read storage info: %w", err)
	}

	cmd.Printf("Storage initialized in %s, max object size is %d bytes\n", info.Path, info.MaxObjectSize)
	return nil
}
