package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/aligator/fatfs"
	"github.com/rstms/go-common"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// volume is an opened image file.
type volume struct {
	disk *fatfs.FileDisk
	fs   fatfs.Filesystem
}

func openVolume(image string) (*volume, error) {
	if !common.IsFile(image) {
		return nil, fmt.Errorf("image %q not found", image)
	}

	disk, err := fatfs.OpenFileDisk(afero.NewOsFs(), image)
	if err != nil {
		return nil, err
	}

	filesystem, err := fatfs.Open(disk, fatfs.WithLogger(log.StandardLogger()))
	if err != nil {
		disk.Close()
		return nil, err
	}
	log.WithField("type", filesystem.Type()).Debugf("opened %q", image)
	return &volume{disk: disk, fs: filesystem}, nil
}

// mount returns the writable FAT32 mount of the volume.
func (v *volume) mount() (*fatfs.Mount, error) {
	m, ok := v.fs.(*fatfs.Mount)
	if !ok {
		return nil, fmt.Errorf("%v volumes are read-only: %w", v.fs.Type(), fatfs.ErrReadOnly)
	}
	return m, nil
}

func (v *volume) Close() error {
	if err := v.disk.Sync(); err != nil {
		v.disk.Close()
		return err
	}
	return v.disk.Close()
}

// withVolume opens image, runs fn on it and closes it again.
func withVolume(image string, fn func(v *volume) error) error {
	v, err := openVolume(image)
	if err != nil {
		return err
	}
	if err := fn(v); err != nil {
		v.Close()
		return err
	}
	return v.Close()
}

// withMount is withVolume for commands writing to the volume.
func withMount(image string, fn func(m *fatfs.Mount) error) error {
	return withVolume(image, func(v *volume) error {
		m, err := v.mount()
		if err != nil {
			return err
		}
		return fn(m)
	})
}

func parseSize(s string) (int64, error) {
	ss := strings.TrimSpace(strings.ToLower(s))
	if ss == "" {
		return 0, fmt.Errorf("empty size")
	}
	mult := int64(1)
	switch {
	case strings.HasSuffix(ss, "k"):
		mult = 1024
		ss = strings.TrimSuffix(ss, "k")
	case strings.HasSuffix(ss, "m"):
		mult = 1024 * 1024
		ss = strings.TrimSuffix(ss, "m")
	case strings.HasSuffix(ss, "g"):
		mult = 1024 * 1024 * 1024
		ss = strings.TrimSuffix(ss, "g")
	}
	v, err := strconv.ParseFloat(ss, 64)
	if err != nil {
		return 0, err
	}
	return int64(v * float64(mult)), nil
}

// defaultFAT32Size is used if neither the flags nor the config name a size.
const defaultFAT32Size = "64M"

func formatConfig(cfg FormatConfig) (fatfs.FormatConfig, error) {
	var out fatfs.FormatConfig
	switch strings.ToLower(cfg.Type) {
	case "fat12":
		out = fatfs.DefaultFAT12Config()
		if cfg.Size != "" {
			size, err := parseSize(cfg.Size)
			if err != nil {
				return out, err
			}
			out.TotalSectors = uint32(size / fatfs.SectorSize)
		}
	case "fat32", "":
		if cfg.Size == "" {
			cfg.Size = defaultFAT32Size
		}
		size, err := parseSize(cfg.Size)
		if err != nil {
			return out, err
		}
		if size%fatfs.SectorSize != 0 {
			return out, fmt.Errorf("size must be multiple of %d", fatfs.SectorSize)
		}
		out = fatfs.DefaultFAT32Config(uint32(size / fatfs.SectorSize))
	default:
		return out, fmt.Errorf("unknown type %q", cfg.Type)
	}

	if cfg.SectorsPerCluster != 0 {
		out.SectorsPerCluster = cfg.SectorsPerCluster
	}
	if cfg.OEM != "" {
		out.OEMName = cfg.OEM
	}
	out.Label = cfg.Label
	return out, nil
}

func mkfsCmd() *cobra.Command {
	var (
		ftStr, sizeStr, label, oem string
		spc                        uint8
	)
	cmd := &cobra.Command{
		Use:   "mkfs IMAGE",
		Short: "Create an image file holding an empty FAT32 or FAT12 volume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := Config.Format
			if cmd.Flags().Changed("type") {
				cfg.Type = ftStr
			}
			if cmd.Flags().Changed("size") {
				cfg.Size = sizeStr
			}
			if cmd.Flags().Changed("sectors-per-cluster") {
				cfg.SectorsPerCluster = spc
			}
			if cmd.Flags().Changed("label") {
				cfg.Label = label
			}
			if cmd.Flags().Changed("oem") {
				cfg.OEM = oem
			}

			formatCfg, err := formatConfig(cfg)
			if err != nil {
				return err
			}

			disk, err := fatfs.CreateFileDisk(afero.NewOsFs(), args[0], formatCfg.TotalSectors)
			if err != nil {
				return err
			}
			if err := fatfs.Format(disk, formatCfg); err != nil {
				disk.Close()
				return err
			}
			if err := disk.Close(); err != nil {
				return err
			}

			log.Infof("formatted %q as %v, %d sectors, %d sectors per cluster",
				args[0], formatCfg.Type, formatCfg.TotalSectors, formatCfg.SectorsPerCluster)
			return nil
		},
	}

	cmd.Flags().StringVarP(&ftStr, "type", "t", "fat32", "FAT variant, fat32 or fat12")
	cmd.Flags().StringVarP(&sizeStr, "size", "s", "", "Size of the image, e.g. 1440K or 2G (default 64M for fat32, 1440K for fat12)")
	cmd.Flags().Uint8Var(&spc, "sectors-per-cluster", 0, "Sectors per cluster, 0 picks one by size")
	cmd.Flags().StringVarP(&label, "label", "l", "", "Volume label")
	cmd.Flags().StringVar(&oem, "oem", "", "OEM name written to the boot sector")
	return cmd
}

func lsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls IMAGE [PATH]",
		Short: "List a directory, the root by default",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "/"
			if len(args) == 2 {
				dir = args[1]
			}
			return withVolume(args[0], func(v *volume) error {
				entries, err := v.fs.ReadDirectory(dir)
				if err != nil {
					return err
				}
				for _, e := range entries {
					kind := "-"
					if e.IsDir() {
						kind = "d"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %10d %s %s\n",
						kind, e.Size(), e.FileInfo().ModTime().Format("2006-01-02 15:04"), e.Name())
				}
				return nil
			})
		},
	}
}

func catCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat IMAGE PATH",
		Short: "Print a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVolume(args[0], func(v *volume) error {
				return cat(cmd.OutOrStdout(), v.fs, args[1])
			})
		},
	}
}

func cat(w io.Writer, filesystem fatfs.Filesystem, path string) error {
	f, err := filesystem.OpenFile(path, os.O_RDONLY)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}

// mutationCmd builds the commands which change one path on a FAT32 volume.
func mutationCmd(use, short string, fn func(m *fatfs.Mount, path string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " IMAGE PATH",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMount(args[0], func(m *fatfs.Mount) error {
				return fn(m, args[1])
			})
		},
	}
}

func mkdirCmd() *cobra.Command {
	return mutationCmd("mkdir", "Create a directory", (*fatfs.Mount).CreateDirectory)
}

func touchCmd() *cobra.Command {
	return mutationCmd("touch", "Create an empty file", (*fatfs.Mount).CreateFile)
}

func rmCmd() *cobra.Command {
	return mutationCmd("rm", "Delete a file", (*fatfs.Mount).DeleteFile)
}

func rmdirCmd() *cobra.Command {
	return mutationCmd("rmdir", "Delete an empty directory", (*fatfs.Mount).DeleteDirectory)
}
