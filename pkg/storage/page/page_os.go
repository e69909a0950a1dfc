package page

import (
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/latticedb/graphcore/pkg/fs"
)

func osCreateFlags() int {
	return os.O_RDWR | os.O_CREATE | os.O_TRUNC
}

func osRDWRFlags() int {
	return os.O_RDWR
}

func growFile(f fs.File, size int64) error {
	// Truncate only grows/shrinks the backing file; the content of any
	// newly-added bytes is zero, matching a freshly-allocated page.
	type truncater interface {
		Truncate(int64) error
	}

	if t, ok := f.(truncater); ok {
		return t.Truncate(size)
	}

	if osf, ok := f.(*os.File); ok {
		return osf.Truncate(size)
	}

	return nil
}

func mapFile(f fs.File, size int64) (mmap.MMap, error) {
	osf, ok := f.(*os.File)
	if !ok {
		return nil, errNotOSFile
	}
	return mmap.MapRegion(osf, int(size), mmap.RDWR, 0, 0)
}

var errNotOSFile = errOnlyRealFS

var errOnlyRealFS = &notOSFileError{}

type notOSFileError struct{}

func (*notOSFileError) Error() string {
	return "page: mmap requires an *os.File-backed fs.FS (use fs.NewReal)"
}
