// Package status reports local host resource usage for the GET /status
// endpoint. It is the single-node analogue of the store-heartbeat
// collection the reference design's placement-driver task handler performs
// with the same library — quorumdb has no separate placement-driver
// service, so this is surfaced directly on each node instead.
package status

import (
	"github.com/shirou/gopsutil/disk"
	"github.com/shirou/gopsutil/mem"
)

// DiskInfo summarizes usage of the filesystem backing a node's data
// directory.
type DiskInfo struct {
	Path        string  `json:"path"`
	TotalBytes  uint64  `json:"total_bytes"`
	UsedBytes   uint64  `json:"used_bytes"`
	UsedPercent float64 `json:"used_percent"`
}

// MemInfo summarizes host memory usage.
type MemInfo struct {
	TotalBytes  uint64  `json:"total_bytes"`
	UsedBytes   uint64  `json:"used_bytes"`
	UsedPercent float64 `json:"used_percent"`
}

// Info is the combined host status report.
type Info struct {
	Disk DiskInfo `json:"disk"`
	Mem  MemInfo  `json:"mem"`
}

// Reporter gathers Info for a node's data directory.
type Reporter struct {
	dataDir string
}

// NewReporter returns a Reporter that measures the filesystem containing
// dataDir.
func NewReporter(dataDir string) *Reporter {
	return &Reporter{dataDir: dataDir}
}

// Report gathers current disk and memory usage.
func (r *Reporter) Report() (Info, error) {
	path := r.dataDir
	if path == "" {
		path = "/"
	}
	du, err := disk.Usage(path)
	if err != nil {
		return Info{}, err
	}
	vm, err := mem.VirtualMemory()
	if err != nil {
		return Info{}, err
	}
	return Info{
		Disk: DiskInfo{
			Path:        path,
			TotalBytes:  du.Total,
			UsedBytes:   du.Used,
			UsedPercent: du.UsedPercent,
		},
		Mem: MemInfo{
			TotalBytes:  vm.Total,
			UsedBytes:   vm.Used,
			UsedPercent: vm.UsedPercent,
		},
	}, nil
}
