package appfs

import "embed"

// FS holds the assets shipped within the binaries.
//
//go:embed migrations templates templates/email/_base.txt templates/email/_base.gohtml curriculum demo
var FS embed.FS
