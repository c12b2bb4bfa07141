// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package buildinfo holds the version string stamped in at link time via
// -ldflags.
package buildinfo

import (
	"fmt"
	"os"
	"path/filepath"
)

var (
	version     = "dev"
	buildCommit string
	buildTime   string
)

// GetVersionString returns a standard version header, eg:
// "diff3merge 1.0.0 (a1b2c3d), built 2026-07-31T00:00:00Z"
func GetVersionString() string {
	return fmt.Sprintf("%s %v (%s), built %v", filepath.Base(os.Args[0]), version, buildCommit, buildTime)
}

func GetVersion() string {
	return version
}
