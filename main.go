// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/dvcol/i18nbundle/cmd/i18nbundle"

func main() {
	cmd.Execute()
}
