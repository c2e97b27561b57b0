package container

import (
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var listCMD = &cobra.Command{
	Use:   "list",
	Short: "Record listing",
	Long:  `List all active records of a container file without opening the storage.`,
	Args:  cobra.NoArgs,
	RunE:  listFunc,
}

func init() {
	listCMD.Flags().StringVar(&vPath, "path", "", "Path to the container file")
	_ = listCMD.MarkFlagRequired("path")
}

func listFunc(cmd *cobra.Command, _ []string) error {
	c, err := openContainer()
	if err != nil {
		return err
	}

	recs, err := c.Records()
	if err != nil {
		return err
	}

	cmd.Printf("Container %d: %d records, %d bytes used\n", c.Number(), c.RecordCount(), c.Size())

	out := tablewriter.NewWriter(cmd.OutOrStdout())
	out.SetHeader([]string{"Offset", "ID", "Size"})
	out.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, r := range recs {
		out.Append([]string{
			strconv.FormatInt(r.Address.Offset, 10),
			strconv.FormatInt(r.ID, 10),
			strconv.FormatInt(int64(r.Size), 10),
		})
	}
	out.Render()

	return nil
}
