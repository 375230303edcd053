package webapp

import _ "embed"

//go:embed webapp.html
var pageHTML []byte
