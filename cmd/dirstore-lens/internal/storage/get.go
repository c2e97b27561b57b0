package storage

import (
	"fmt"

	common "github.com/nspcc-dev/dirstore/cmd/dirstore-lens/internal"
	"github.com/spf13/cobra"
)

var getCMD = &cobra.Command{
	Use:   "get",
	Short: "Get object payload",
	Long:  "Get object payload from the storage and write it to the file or stdout",
	Args:  cobra.NoArgs,
	RunE:  getFunc,
}

func init() {
	addStorageFlags(getCMD)
	common.AddIDFlag(getCMD, &vID, true)
	common.AddOutputFileFlag(getCMD, &vOut, "File to save the payload to, stdout is used if not set")
	common.AddReadOnlyFlag(getCMD, &vReadOnly)
}

func getFunc(cmd *cobra.Command, _ []string) error {
	s, err := common.OpenStorage(storagePrm(vReadOnly))
	if err != nil {
		return err
	}
	defer common.CloseStorage(cmd, s)

	data, err := s.Get(vID)
	if err != nil {
		return common.Errf("could not fetch object: %w", err)
	}
	if data == nil {
		return fmt.Errorf("%w: %d", common.ErrNotFound, vID)
	}

	return common.WriteObjectToFile(cmd, vOut, data)
}
