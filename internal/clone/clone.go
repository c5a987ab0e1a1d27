// Package clone concatenates files using copy-on-write block cloning where
// the filesystem supports it.
//
// On Linux with a reflink-capable filesystem (btrfs, XFS with reflink) the
// block-aligned body of every source is cloned into the destination without
// copying bytes; only the unaligned tail of each source is written through
// the page cache. Everywhere else the package degrades to a plain copy, so
// callers never need to know whether cloning happened.
package clone

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// blockSize is the clone granularity. Reflink ioctls require both the range
// length and the destination offset to be multiples of the filesystem block
// size; 4096 holds for every filesystem that implements cloning.
const blockSize = 4096

// errCloneUnsupported signals that the byte-copy path must be taken for the
// current platform, filesystem or file pair.
var errCloneUnsupported = errors.New("clone not supported")

// Concat writes the concatenation of sources into a new file at dst.
// An existing file at dst is truncated.
func Concat(dst string, sources []string) error {
	out, err := os.OpenFile(dst, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer func() { _ = out.Close() }()

	var offset int64
	for _, src := range sources {
		n, err := appendFile(out, offset, src)
		if err != nil {
			return fmt.Errorf("failed to append %s: %w", src, err)
		}
		offset += n
	}

	if err := out.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", dst, err)
	}
	return nil
}

// appendFile writes the contents of src into out at offset and returns the
// number of bytes appended. The block-aligned head is cloned when possible;
// the remainder is byte-copied.
func appendFile(out *os.File, offset int64, src string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return 0, err
	}
	size := info.Size()

	aligned := size &^ (blockSize - 1)
	var copied int64

	// Cloning requires the destination offset to be block-aligned too,
	// which holds whenever every preceding source was a whole number of
	// blocks. Otherwise the whole source is byte-copied.
	if aligned > 0 && offset%blockSize == 0 {
		err := cloneRange(out, in, offset, aligned)
		switch {
		case err == nil:
			copied = aligned
		case errors.Is(err, errCloneUnsupported):
			// fall through to byte copy from the start
		default:
			return 0, err
		}
	}

	if copied < size {
		if _, err := in.Seek(copied, io.SeekStart); err != nil {
			return 0, err
		}
		if _, err := out.Seek(offset+copied, io.SeekStart); err != nil {
			return 0, err
		}
		n, err := io.Copy(out, in)
		if err != nil {
			return 0, err
		}
		copied += n
	}

	return copied, nil
}
