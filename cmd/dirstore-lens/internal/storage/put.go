package storage

import (
	common "github.com/nspcc-dev/dirstore/cmd/dirstore-lens/internal"
	"github.com/spf13/cobra"
)

var putCMD = &cobra.Command{
	Use:   "put",
	Short: "Store an object",
	Long: `Store payload read from the file or stdin and print its ID.
With --id the payload replaces the object with this ID.`,
	Args: cobra.NoArgs,
	RunE: putFunc,
}

func init() {
	addStorageFlags(putCMD)
	common.AddIDFlag(putCMD, &vID, false)
	common.AddInputFileFlag(putCMD, &vFile)
}

func putFunc(cmd *cobra.Command, _ []string) error {
	data, err := common.ReadInput(cmd, vFile)
	if err != nil {
		return err
	}

	s, err := common.OpenStorage(storagePrm(false))
	if err != nil {
		return err
	}
	defer common.CloseStorage(cmd, s)

	var id int64
	if cmd.Flags().Changed("id") {
		ids, err := s.WriteBatch([]int64{vID}, [][]byte{data})
		if err != nil {
			return common.Errf("could not write object: %w", err)
		}
		id = ids[0]
	} else if id, err = s.Write(data); err != nil {
		return common.Errf("could not write object: %w", err)
	}

	cmd.Println(id)
	return nil
}
