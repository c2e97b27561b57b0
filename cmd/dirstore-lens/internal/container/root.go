package container

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/container"
	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/dirstorage/supervisor"
	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/util/logicerr"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var vPath string

var errInvalidName = logicerr.New("not a container file name")

// Root defines root command for operations with a single container file.
var Root = &cobra.Command{
	Use:   "container",
	Short: "Operations with a container file",
}

func init() {
	Root.AddCommand(listCMD)
}

// openContainer opens read-only container located in vPath. Container
// number is taken from the file name.
func openContainer() (*container.Container, error) {
	name := filepath.Base(vPath)

	num, ok := strings.CutPrefix(name, supervisor.DefaultPrefix)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errInvalidName, name)
	}

	n, err := strconv.ParseInt(num, 10, 32)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: %s", errInvalidName, name)
	}

	c, err := container.Open(vPath, int32(n),
		container.WithReadOnly(true),
		container.WithLogger(zap.NewNop()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open container: %w", err)
	}

	return c, nil
}
