//go:build !linux

package clone

import "os"

// cloneRange always reports unsupported off Linux, forcing the byte-copy
// path in appendFile.
func cloneRange(out, in *os.File, dstOffset, length int64) error {
	return errCloneUnsupported
}
