// tanklog - Tank Reading Extraction Tool
//
// tanklog reads storage service logs and extracts the tank sensor readings
// they carry as per-tank time series.
package main

import (
	"os"

	"github.com/ccollicutt/tanklog/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
