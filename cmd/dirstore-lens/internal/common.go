package common

import (
	"fmt"
	"io"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/nspcc-dev/dirstore/cmd/dirstore-lens/config"
	loggerconfig "github.com/nspcc-dev/dirstore/cmd/dirstore-lens/config/logger"
	storageconfig "github.com/nspcc-dev/dirstore/cmd/dirstore-lens/config/storage"
	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/safestorage"
	"github.com/nspcc-dev/dirstore/pkg/local_object_storage/util/logicerr"
	"github.com/nspcc-dev/dirstore/pkg/util/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	flagPath     = "path"
	flagConfig   = "config"
	flagID       = "id"
	flagOut      = "out"
	flagFile     = "file"
	flagFormat   = "format"
	flagReadOnly = "read-only"
)

// Output formats of the inspection commands.
const (
	FormatTable = "table"
	FormatYAML  = "yaml"
)

var (
	// ErrNotFound is returned when the requested object is missing.
	ErrNotFound = logicerr.New("object not found")

	errNoPath = logicerr.New("storage path is set neither by flag nor by config")
)

// AddComponentPathFlag adds the path-to-component flag to the cobra command.
func AddComponentPathFlag(cmd *cobra.Command, v *string) {
	cmd.Flags().StringVar(v, flagPath, "", "Path to the storage directory, overrides storage.path of the config")
}

// AddConfigFileFlag adds the config file flag to the cobra command.
func AddConfigFileFlag(cmd *cobra.Command, v *string) {
	cmd.Flags().StringVar(v, flagConfig, "", "Path to the lens config file")
}

// AddIDFlag adds the object ID flag to the cobra command.
func AddIDFlag(cmd *cobra.Command, v *int64, required bool) {
	cmd.Flags().Int64Var(v, flagID, 0, "Object ID")
	if required {
		_ = cmd.MarkFlagRequired(flagID)
	}
}

// AddIDsFlag adds the repeated object ID flag to the cobra command.
func AddIDsFlag(cmd *cobra.Command, v *[]int64) {
	cmd.Flags().Int64SliceVar(v, flagID, nil, "Object IDs, comma separated or repeated")
	_ = cmd.MarkFlagRequired(flagID)
}

// AddOutputFileFlag adds the output file flag to the cobra command.
func AddOutputFileFlag(cmd *cobra.Command, v *string, usage string) {
	cmd.Flags().StringVar(v, flagOut, "", usage)
}

// AddInputFileFlag adds the input file flag to the cobra command.
func AddInputFileFlag(cmd *cobra.Command, v *string) {
	cmd.Flags().StringVar(v, flagFile, "", "File with the payload, stdin is used if not set")
}

// AddFormatFlag adds the output format flag to the cobra command.
func AddFormatFlag(cmd *cobra.Command, v *string) {
	cmd.Flags().StringVar(v, flagFormat, FormatTable, "Output format: table or yaml")
}

// AddReadOnlyFlag adds the read-only flag to the cobra command.
func AddReadOnlyFlag(cmd *cobra.Command, v *bool) {
	cmd.Flags().BoolVar(v, flagReadOnly, false, "Open storage in read-only mode, interrupted operations are not repaired")
}

// Errf returns formatted error in errFmt format if err is not nil.
func Errf(errFmt string, err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf(errFmt, err)
}

// StoragePrm groups parameters of OpenStorage and CreateStorage.
type StoragePrm struct {
	// Path to the storage directory, storage.path config value is used if empty.
	Path string
	// Config is an optional path to the config file.
	Config string
	// ReadOnly forbids any modifications of the storage directory.
	ReadOnly bool
}

// OpenStorage opens existing storage. Storage interrupted in the middle of
// an operation is recovered unless prm.ReadOnly is set.
func OpenStorage(prm StoragePrm) (*safestorage.Storage, error) {
	dir, opts, err := storageOptions(prm)
	if err != nil {
		return nil, err
	}

	s, err := safestorage.OpenDirectory(dir, opts...)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return s, nil
}

// CreateStorage creates a new storage, existing data in the directory is
// discarded.
func CreateStorage(prm StoragePrm) (*safestorage.Storage, error) {
	dir, opts, err := storageOptions(prm)
	if err != nil {
		return nil, err
	}

	s, err := safestorage.NewDirectory(dir, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage: %w", err)
	}
	return s, nil
}

func readConfig(path string) (*config.Config, error) {
	var opts []config.Option
	if path != "" {
		p, err := homedir.Expand(path)
		if err != nil {
			return nil, fmt.Errorf("expand config path: %w", err)
		}
		opts = append(opts, config.WithConfigFile(p))
	}

	return config.New(opts...)
}

// Logger returns logger configured by the "logger" section of c.
func Logger(c *config.Config) (*zap.Logger, error) {
	var prm logger.Prm

	if err := prm.SetLevelString(loggerconfig.Level(c)); err != nil {
		return nil, fmt.Errorf("invalid logger level: %w", err)
	}
	if err := prm.SetFormat(loggerconfig.Format(c)); err != nil {
		return nil, err
	}
	if !loggerconfig.Timestamp(c) {
		prm.DisableTimestamps()
	}

	return logger.NewLogger(prm)
}

func storageOptions(prm StoragePrm) (string, []safestorage.Option, error) {
	c, err := readConfig(prm.Config)
	if err != nil {
		return "", nil, err
	}

	log, err := Logger(c)
	if err != nil {
		return "", nil, err
	}

	sc, err := storageconfig.Read(c)
	if err != nil {
		return "", nil, err
	}

	dir := sc.Path
	if prm.Path != "" {
		if dir, err = homedir.Expand(prm.Path); err != nil {
			return "", nil, fmt.Errorf("expand storage path: %w", err)
		}
	}
	if dir == "" {
		return "", nil, errNoPath
	}

	return dir, []safestorage.Option{
		safestorage.WithLogger(log),
		safestorage.WithReadOnly(prm.ReadOnly),
		safestorage.WithNoSync(sc.NoSync),
		safestorage.WithStorageOptions(sc.Options()...),
	}, nil
}

// ReadInput reads the whole file at path or the command input if path is
// empty.
func ReadInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input file: %w", err)
	}
	return data, nil
}

// WriteObjectToFile writes data to the file at path or to the command
// output if path is empty.
func WriteObjectToFile(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("could not write file: %w", err)
	}

	cmd.Printf("\nSaved payload to '%s' file\n", path)
	return nil
}

// CloseStorage closes s and reports the failure via cmd.
func CloseStorage(cmd *cobra.Command, s interface{ Close() error }) {
	if err := s.Close(); err != nil {
		cmd.PrintErrln(Errf("close storage: %w", err))
	}
}
