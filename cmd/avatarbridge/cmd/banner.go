package cmd

import (
	"fmt"
)

const banner = `
                  _             _          _     _
   __ ___   ____ _| |_ __ _ _ __| |__  _ __(_) __| | __ _  ___
  / _` + "`" + ` \ \ / / _` + "`" + ` | __/ _` + "`" + ` | '__| '_ \| '__| |/ _` + "`" + ` |/ _` + "`" + ` |/ _ \
 | (_| |\ V / (_| | || (_| | |  | |_) | |  | | (_| | (_| |  __/
  \__,_| \_/ \__,_|\__\__,_|_|  |_.__/|_|  |_|\__,_|\__, |\___|
                                                    |___/
`

func printBanner() {
	fmt.Printf("\x1b[34m%s\x1b[0m", banner)
	fmt.Printf("\x1b[32m  Avatar Platform Session Bridge - Version %s\x1b[0m\n\n", Version)
}
