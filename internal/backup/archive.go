package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"
)

// writeArchive compresses src into a new zip at dst holding a single entry
// named after src's base name. It returns the archive size.
func writeArchive(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("opening data file: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat data file: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, fmt.Errorf("creating archive: %w", err)
	}

	if err := copyIntoZip(out, in, info); err != nil {
		_ = out.Close()
		return 0, err
	}

	if err := out.Close(); err != nil {
		return 0, fmt.Errorf("closing archive: %w", err)
	}

	st, err := os.Stat(dst)
	if err != nil {
		return 0, fmt.Errorf("stat archive: %w", err)
	}
	return st.Size(), nil
}

func copyIntoZip(w io.Writer, src io.Reader, info os.FileInfo) error {
	zw := zip.NewWriter(w)

	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("building zip header: %w", err)
	}
	hdr.Name = filepath.Base(info.Name())
	hdr.Method = zip.Deflate

	entry, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("creating zip entry: %w", err)
	}
	if _, err := io.Copy(entry, src); err != nil {
		return fmt.Errorf("compressing data file: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalising zip: %w", err)
	}
	return nil
}
