package storage

import (
	"fmt"
	"io"

	common "github.com/nspcc-dev/dirstore/cmd/dirstore-lens/internal"
	"github.com/spf13/cobra"
)

var listCMD = &cobra.Command{
	Use:   "list",
	Short: "Object listing",
	Long:  `List IDs of all objects stored in the storage.`,
	Args:  cobra.NoArgs,
	RunE:  listFunc,
}

func init() {
	addStorageFlags(listCMD)
	common.AddReadOnlyFlag(listCMD, &vReadOnly)
}

func listFunc(cmd *cobra.Command, _ []string) error {
	s, err := common.OpenStorage(storagePrm(vReadOnly))
	if err != nil {
		return err
	}
	defer common.CloseStorage(cmd, s)

	w := cmd.OutOrStdout()

	err = s.IterateIDs(func(id int64) error {
		_, err := io.WriteString(w, fmt.Sprintf("%d\n", id))
		return err
	})
	return common.Errf("storage iterator failure: %w", err)
}
