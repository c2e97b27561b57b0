package storage

import (
	"fmt"

	"github.com/cheggaaa/pb"
	common "github.com/nspcc-dev/dirstore/cmd/dirstore-lens/internal"
	"github.com/nspcc-dev/dirstore/pkg/util/dump"
	"github.com/spf13/cobra"
)

const exportBatchSize = 256

var exportCMD = &cobra.Command{
	Use:   "export",
	Short: "Export objects into a BoltDB file",
	Long: `Copy all stored objects into a BoltDB database.
Objects are put into the "objects" bucket keyed by 8-byte big-endian ID.`,
	Args: cobra.NoArgs,
	RunE: exportFunc,
}

func init() {
	addStorageFlags(exportCMD)
	common.AddOutputFileFlag(exportCMD, &vOut, "Path to the BoltDB file")
	_ = exportCMD.MarkFlagRequired("out")
	common.AddReadOnlyFlag(exportCMD, &vReadOnly)
}

func exportFunc(cmd *cobra.Command, _ []string) error {
	s, err := common.OpenStorage(storagePrm(vReadOnly))
	if err != nil {
		return err
	}
	defer common.CloseStorage(cmd, s)

	var ids []int64
	err = s.IterateIDs(func(id int64) error {
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return common.Errf("storage iterator failure: %w", err)
	}

	db, err := dump.Open(vOut, false)
	if err != nil {
		return fmt.Errorf("could not open dump: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			cmd.PrintErrln(common.Errf("close dump: %w", err))
		}
	}()

	bar := pb.New(len(ids))
	bar.Output = cmd.ErrOrStderr()
	bar.Start()

	var exported int
	for len(ids) > 0 {
		batch := ids[:min(exportBatchSize, len(ids))]
		ids = ids[len(batch):]

		data, err := s.GetBatch(batch)
		if err != nil {
			bar.Finish()
			return common.Errf("could not fetch objects: %w", err)
		}

		n, err := db.PutBatch(batch, data)
		if err != nil {
			bar.Finish()
			return common.Errf("could not write to dump: %w", err)
		}
		exported += n

		bar.Add(len(batch))
	}

	bar.Finish()
	cmd.Printf("Exported %d objects to %s\n", exported, vOut)
	return nil
}
