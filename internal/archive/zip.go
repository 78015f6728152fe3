/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package archive provides the concrete vmhost.ArchiveReader
// implementations: a stdlib archive/zip reader for the common case, and an
// mmap-backed reader (grounded on saferwall-pe's use of edsrzf/mmap-go for
// large binary images) for JARs and bootstrap libraries too big to want to
// copy wholesale into memory.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"strings"
)

// ZipReader implements vmhost.ArchiveReader over the standard library's
// archive/zip reader: the lookup path used for both the application
// archive and the bootstrap library archive.
type ZipReader struct {
	file *os.File
	zr   *zip.Reader
}

// OpenZip opens path as a ZIP archive for path-keyed entry lookup.
func OpenZip(path string) (*ZipReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("archive: opening %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("archive: %s is not a valid zip: %w", path, err)
	}
	return &ZipReader{file: f, zr: zr}, nil
}

func normalize(path string) string {
	return strings.TrimPrefix(path, "/")
}

func (z *ZipReader) ReadEntry(path string) ([]byte, bool, error) {
	path = normalize(path)
	for _, f := range z.zr.File {
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

// MainClass reads META-INF/MANIFEST.MF and extracts the Main-Class
// attribute.
func (z *ZipReader) MainClass() (string, bool, error) {
	data, ok, err := z.ReadEntry("META-INF/MANIFEST.MF")
	if err != nil || !ok {
		return "", ok, err
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(line, "Main-Class:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "Main-Class:")), true, nil
		}
	}
	return "", false, nil
}

// ClassEntries lists every ".class" entry path stored in the archive, with
// the suffix stripped so each is a bare class name (e.g. "java/lang/Object"),
// used by the `classes` diagnostic subcommand.
func (z *ZipReader) ClassEntries() []string {
	var names []string
	for _, f := range z.zr.File {
		name := normalize(f.Name)
		if strings.HasSuffix(name, ".class") {
			names = append(names, strings.TrimSuffix(name, ".class"))
		}
	}
	return names
}

func (z *ZipReader) Close() error {
	return z.file.Close()
}
