package storage

import (
	"fmt"
	"strconv"

	common "github.com/nspcc-dev/dirstore/cmd/dirstore-lens/internal"
	dscommon "github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/common"
	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/util/logicerr"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var errUnknownFormat = logicerr.New("unknown output format")

var inspectCMD = &cobra.Command{
	Use:   "inspect",
	Short: "Storage overview",
	Long:  "Print storage settings, ID allocator and index state and per-container statistics",
	Args:  cobra.NoArgs,
	RunE:  inspectFunc,
}

func init() {
	addStorageFlags(inspectCMD)
	common.AddFormatFlag(inspectCMD, &vFormat)
	common.AddReadOnlyFlag(inspectCMD, &vReadOnly)
}

type containerSummary struct {
	Name    string `yaml:"name"`
	Records int32  `yaml:"records"`
	Size    int64  `yaml:"size"`
}

type indexSummary struct {
	TableSize int64 `yaml:"table_size"`
	Cells     int64 `yaml:"cells"`
}

type storageSummary struct {
	Path             string             `yaml:"path"`
	Mode             string             `yaml:"mode"`
	MaxContainerSize int64              `yaml:"max_container_size"`
	MaxObjectSize    int64              `yaml:"max_object_size"`
	NextID           int64              `yaml:"next_id"`
	FreeIDs          int64              `yaml:"free_ids"`
	Index            indexSummary       `yaml:"index"`
	Containers       []containerSummary `yaml:"containers"`
}

func summarize(info dscommon.Info) storageSummary {
	res := storageSummary{
		Path:             info.Path,
		Mode:             info.Mode.String(),
		MaxContainerSize: info.MaxContainerSize,
		MaxObjectSize:    info.MaxObjectSize,
		NextID:           info.NextID,
		FreeIDs:          info.FreeIDs,
		Index: indexSummary{
			TableSize: info.IndexTableSize,
			Cells:     info.IndexCells,
		},
		Containers: make([]containerSummary, 0, len(info.Containers)),
	}

	for _, c := range info.Containers {
		res.Containers = append(res.Containers, containerSummary{
			Name:    c.Name,
			Records: c.Records,
			Size:    c.Size,
		})
	}

	return res
}

func inspectFunc(cmd *cobra.Command, _ []string) error {
	if vFormat != common.FormatTable && vFormat != common.FormatYAML {
		return fmt.Errorf("%w: %s", errUnknownFormat, vFormat)
	}

	s, err := common.OpenStorage(storagePrm(vReadOnly))
	if err != nil {
		return err
	}
	defer common.CloseStorage(cmd, s)

	info, err := s.Info()
	if err != nil {
		return common.Errf("could not read storage info: %w", err)
	}

	sum := summarize(info)

	if vFormat == common.FormatYAML {
		data, err := yaml.Marshal(sum)
		if err != nil {
			return common.Errf("encode storage info into YAML: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	printSummaryTable(cmd, sum)
	return nil
}

func printSummaryTable(cmd *cobra.Command, sum storageSummary) {
	out := tablewriter.NewWriter(cmd.OutOrStdout())
	out.SetHeader([]string{"Property", "Value"})
	out.SetAutoWrapText(false)
	out.AppendBulk([][]string{
		{"Path", sum.Path},
		{"Mode", sum.Mode},
		{"Max container size", strconv.FormatInt(sum.MaxContainerSize, 10)},
		{"Max object size", strconv.FormatInt(sum.MaxObjectSize, 10)},
		{"Next ID", strconv.FormatInt(sum.NextID, 10)},
		{"Free IDs", strconv.FormatInt(sum.FreeIDs, 10)},
		{"Index table size", strconv.FormatInt(sum.Index.TableSize, 10)},
		{"Index cells", strconv.FormatInt(sum.Index.Cells, 10)},
	})
	out.Render()

	if len(sum.Containers) == 0 {
		return
	}

	cnrs := tablewriter.NewWriter(cmd.OutOrStdout())
	cnrs.SetHeader([]string{"Container", "Records", "Size"})
	cnrs.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, c := range sum.Containers {
		cnrs.Append([]string{
			c.Name,
			strconv.FormatInt(int64(c.Records), 10),
			strconv.FormatInt(c.Size, 10),
		})
	}
	cnrs.Render()
}
