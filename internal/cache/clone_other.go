//go:build !linux && !darwin

package cache

import (
	"errors"
	"os"
)

var errCloneUnsupported = errors.New("file clone not supported on this platform")

func cloneFile(string, string, os.FileMode) error {
	return errCloneUnsupported
}
