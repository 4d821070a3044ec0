package main

import (
	"os"

	alembiccmder "github.com/papercomputeco/alembic/cmd/alembic"
)

func main() {
	cmd := alembiccmder.NewAlembicCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
