package trustlist

import _ "embed"

//go:embed disposable.txt
var embeddedDisposable string

//go:embed trusted.txt
var embeddedTrusted string
