package domain

const (
	// KilnDirName is reserved for tool state and never watched.
	KilnDirName = ".kiln"

	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "kiln.yaml"

	// OutputDirPattern is the os.MkdirTemp pattern for per-cycle compiler output.
	OutputDirPattern = "kiln-cycle-*"
)

// DirPerm is the default permission for directories (rwxr-x---).
const DirPerm = 0o750
