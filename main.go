// SPDX-License-Identifier: Apache-2.0
package main

import (
	"github.com/coffer-backup/coffer/cmd"
)

func main() {
	cmd.Execute()
}
