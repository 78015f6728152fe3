/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"

	mmap "github.com/edsrzf/mmap-go"
)

// MmapZipReader is an ArchiveReader backed by a memory-mapped file, for
// bootstrap libraries and large application JARs where copying the whole
// archive into the Go heap up front is wasteful. Grounded on saferwall-pe's
// use of edsrzf/mmap-go to map PE images instead of reading them whole.
type MmapZipReader struct {
	file   *os.File
	region mmap.MMap
	zr     *zip.Reader
}

// OpenMmapZip maps path into memory and opens it as a ZIP archive.
func OpenMmapZip(path string) (*MmapZipReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("archive: opening %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() == 0 {
		f.Close()
		return nil, fmt.Errorf("archive: %s is empty", path)
	}
	region, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("archive: mmap %s: %w", path, err)
	}
	zr, err := zip.NewReader(bytes.NewReader(region), info.Size())
	if err != nil {
		region.Unmap()
		f.Close()
		return nil, fmt.Errorf("archive: %s is not a valid zip: %w", path, err)
	}
	return &MmapZipReader{file: f, region: region, zr: zr}, nil
}

func (m *MmapZipReader) ReadEntry(path string) ([]byte, bool, error) {
	path = normalize(path)
	for _, f := range m.zr.File {
		if normalize(f.Name) != path {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, false, err
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, false, err
		}
		return data, true, nil
	}
	return nil, false, nil
}

func (m *MmapZipReader) Close() error {
	if err := m.region.Unmap(); err != nil {
		m.file.Close()
		return err
	}
	return m.file.Close()
}
