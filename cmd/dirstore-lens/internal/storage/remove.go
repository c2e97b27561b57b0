package storage

import (
	common "github.com/nspcc-dev/dirstore/cmd/dirstore-lens/internal"
	"github.com/spf13/cobra"
)

var removeCMD = &cobra.Command{
	Use:   "remove",
	Short: "Remove objects",
	Long:  "Remove objects from the storage, missing IDs are skipped",
	Args:  cobra.NoArgs,
	RunE:  removeFunc,
}

func init() {
	addStorageFlags(removeCMD)
	common.AddIDsFlag(removeCMD, &vIDs)
}

func removeFunc(cmd *cobra.Command, _ []string) error {
	s, err := common.OpenStorage(storagePrm(false))
	if err != nil {
		return err
	}
	defer common.CloseStorage(cmd, s)

	found, err := s.RemoveBatch(vIDs)
	if err != nil {
		return common.Errf("could not remove objects: %w", err)
	}

	if !found {
		cmd.Println("Nothing to remove")
		return nil
	}

	cmd.Println("Objects removed")
	return nil
}
