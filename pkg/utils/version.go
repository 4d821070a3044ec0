// Package utils holds small helpers shared across alembic packages.
package utils

// Build metadata, stamped at link time:
//
//	go build -ldflags "-X github.com/papercomputeco/alembic/pkg/utils.Version=v0.3.0" ./cli/alembic
//
// alembic version prints them and the MCP server reports Version.
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)
