package storage

import (
	common "github.com/nspcc-dev/dirstore/cmd/dirstore-lens/internal"
	"github.com/spf13/cobra"
)

var (
	vPath     string
	vConfig   string
	vID       int64
	vIDs      []int64
	vOut      string
	vFile     string
	vFormat   string
	vReadOnly bool
)

// Root contains `storage` command definition.
var Root = &cobra.Command{
	Use:   "storage",
	Short: "Operations with a directory storage",
}

func init() {
	Root.AddCommand(
		initCMD,
		putCMD,
		getCMD,
		removeCMD,
		listCMD,
		inspectCMD,
		rebuildCMD,
		exportCMD,
	)
}

func storagePrm(readOnly bool) common.StoragePrm {
	return common.StoragePrm{
		Path:     vPath,
		Config:   vConfig,
		ReadOnly: readOnly,
	}
}

func addStorageFlags(cmd *cobra.Command) {
	common.AddComponentPathFlag(cmd, &vPath)
	common.AddConfigFileFlag(cmd, &vConfig)
}
