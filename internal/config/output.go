package config

import (
	"io"
	"os"
)

// logOutput is swapped in tests.
var logOutput io.Writer = os.Stdout
