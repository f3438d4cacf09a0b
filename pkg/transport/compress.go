/*
This file is part of b4backup.

B4backup is free software: you can redistribute it and/or modify it under the terms of the
GNU Lesser General Public License as published by the Free Software Foundation, either
version 3 of the License, or (at your option) any later version.

B4backup is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
See the GNU Lesser General Public License for more details.

You should have received a copy of the GNU Lesser General Public License along with b4backup.
If not, see <https://www.gnu.org/licenses/>.
*/

package transport

import (
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// ArchiveFormat selects the compression envelope an archive mirror is
// written with, mirroring the teacher's compressed sync managers
// (pkg/cmd/syncmanager/{local,ssh}_compressed.go), which pipe a raw send
// stream through gzip or zstd into a flat destination file instead of
// back into `btrfs receive`.
type ArchiveFormat string

const (
	ArchiveFormatNone ArchiveFormat = ""
	ArchiveFormatGzip ArchiveFormat = "gzip"
	ArchiveFormatZstd ArchiveFormat = "zstd"
)

// NewEncoder wraps w with the compressor named by f. The caller must
// Close the returned writer to flush the envelope's trailer.
func NewEncoder(f ArchiveFormat, w io.Writer) (io.WriteCloser, error) {
	switch f {
	case ArchiveFormatNone:
		return nopWriteCloser{w}, nil
	case ArchiveFormatGzip:
		return gzip.NewWriter(w), nil
	case ArchiveFormatZstd:
		return zstd.NewWriter(w)
	default:
		return nil, fmt.Errorf("unknown archive format %q", f)
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
