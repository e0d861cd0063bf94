//go:build unix

package source

import (
	"os"

	"fortio.org/safecast"
	"golang.org/x/sys/unix"
)

type mapView struct {
	data []byte // size+1 bytes, the last inside the final page's zero fill
}

// mapFile maps size+1 bytes of f. The extra byte is only guaranteed to read
// as zero when size is not a multiple of the page size.
func mapFile(f *os.File, size int) (*mapView, error) {
	if size <= 0 || size%os.Getpagesize() == 0 {
		return nil, ErrMapUnusable
	}

	fd, err := safecast.Conv[int](f.Fd())
	if err != nil {
		return nil, err
	}

	data, err := unix.Mmap(fd, 0, size+1, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}

	return &mapView{data: data}, nil
}

func (v *mapView) Bytes() []byte { return v.data }

func (v *mapView) Len() int {
	if len(v.data) == 0 {
		return 0
	}

	return len(v.data) - 1
}

func (v *mapView) Close() error {
	if v.data == nil {
		return nil
	}

	data := v.data
	v.data = nil

	return unix.Munmap(data)
}
