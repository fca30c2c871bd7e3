// SPDX-License-Identifier: MPL-2.0

package main

import (
	"os"

	cmd "github.com/unnest/unnest/cmd/unnest"
)

func main() {
	os.Exit(cmd.Main())
}
