package pkg

import (
	"fmt"
	"os"
	"unsafe"
)

// BytesToString converts bytes slice to a string without extra allocation
func BytesToString(buf []byte) string {
	return *(*string)(unsafe.Pointer(&buf))
}

// PathExists returns whether the given file or directory exists.
// A path of the other kind is an error.
func PathExists(path string, isDir bool) (bool, error) {
	stat, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	switch {
	case isDir && !stat.IsDir():
		return false, fmt.Errorf("%s is not a directory", path)
	case !isDir && stat.IsDir():
		return false, fmt.Errorf("%s is a directory", path)
	}
	return true, nil
}
