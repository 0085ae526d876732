package fatfs

import (
	"time"

	"github.com/aligator/fatfs/checkpoint"
	"github.com/sirupsen/logrus"
)

// Mount is a mounted FAT32 volume together with its session state.
// A Mount is not safe for concurrent use.
//
// No multi step mutation is crash safe. The FAT is always updated before the
// directory entry referencing a cluster is written, so an interrupted operation
// leaves at most an allocated cluster nothing points to.
type Mount struct {
	dev   SectorDevice
	boot  *bootSector
	geo   Geometry
	total Cluster

	// cwd is the cluster of the current directory, the base of relative paths.
	cwd Cluster

	window  sectorWindow
	cluster []byte

	log   logrus.FieldLogger
	clock func() time.Time
}

// ensure Mount implements Filesystem
var _ Filesystem = (*Mount)(nil)

// MountFAT32 mounts the FAT32 volume on dev read-write.
// Any other FAT variant is rejected with ErrUnsupported, use Open to get read access to them.
func MountFAT32(dev SectorDevice, opts ...Option) (*Mount, error) {
	o := newOptions(opts)
	bs, err := readBootSector(dev, o.skipChecks)
	if err != nil {
		return nil, err
	}
	if bs.fsType != FAT32 {
		return nil, checkpoint.Wrapf(ErrUnsupported, ErrUnsupported, "%v is not writable", bs.fsType)
	}
	return newMount(dev, bs, o)
}

func newMount(dev SectorDevice, bs *bootSector, o options) (*Mount, error) {
	geo := bs.geo
	total := geo.TotalClusters()

	// Never address entries behind the end of the FAT.
	if capacity := Cluster(geo.SectorsPerFAT * geo.BytesPerSector / 4); total > capacity {
		total = capacity
	}
	if geo.RootCluster < firstDataCluster || geo.RootCluster >= total {
		return nil, checkpoint.Wrapf(ErrFormat, ErrFormat, "root cluster %d out of range", geo.RootCluster)
	}

	m := &Mount{
		dev:     dev,
		boot:    bs,
		geo:     geo,
		total:   total,
		cwd:     geo.RootCluster,
		window:  newSectorWindow(),
		cluster: make([]byte, geo.ClusterSize()),
		log:     o.log,
		clock:   o.clock,
	}

	m.log.WithFields(logrus.Fields{
		"label":             bs.label(),
		"sectorsPerCluster": geo.SectorsPerCluster,
		"sectorsPerFAT":     geo.SectorsPerFAT,
		"firstDataSector":   geo.FirstDataSector(),
		"totalClusters":     total,
		"rootCluster":       geo.RootCluster,
	}).Debug("mounted FAT32 volume")

	return m, nil
}

func (m *Mount) Type() FSType {
	return FAT32
}

func (m *Mount) Label() string {
	return m.boot.label()
}

func (m *Mount) Geometry() Geometry {
	return m.geo
}

// TotalClusters is the exclusive upper bound of usable clusters on this mount.
func (m *Mount) TotalClusters() Cluster {
	return m.total
}

func (m *Mount) RootCluster() Cluster {
	return m.geo.RootCluster
}

// CurrentCluster returns the first cluster of the current directory.
func (m *Mount) CurrentCluster() Cluster {
	return m.cwd
}
