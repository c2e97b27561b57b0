package storage

import (
	"strings"

	common "github.com/nspcc-dev/dirstore/cmd/dirstore-lens/internal"
	"github.com/spf13/cobra"
)

var rebuildCMD = &cobra.Command{
	Use:   "rebuild",
	Short: "Compact the storage",
	Long: `Rewrite live objects into new containers and rebuild the index.
Space of removed and replaced objects is reclaimed.`,
	Args: cobra.NoArgs,
	RunE: rebuildFunc,
}

func init() {
	addStorageFlags(rebuildCMD)
}

func rebuildFunc(cmd *cobra.Command, _ []string) error {
	s, err := common.OpenStorage(storagePrm(false))
	if err != nil {
		return err
	}
	defer common.CloseStorage(cmd, s)

	info, err := s.Rebuild()
	if err != nil {
		return common.Errf("could not rebuild storage: %w", err)
	}

	cmd.Printf("Rebuilt %d records into %d containers\n", info.Records, info.Containers)
	if len(info.LostContainers) > 0 {
		cmd.Printf("Lost containers: %s\n", strings.Join(info.LostContainers, ", "))
	}
	return nil
}
