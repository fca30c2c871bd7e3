// SPDX-License-Identifier: MPL-2.0

package destpath

import (
	"errors"
	"io/fs"
	"os"
)

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err)
}
