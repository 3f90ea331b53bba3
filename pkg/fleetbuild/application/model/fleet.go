package model

type GitBackend = string

const (
	GitBackendCLI    GitBackend = "cli"
	GitBackendNative GitBackend = "native"
)

type Compose struct {
	Executable  string
	Args        []string
	RegistryEnv string
	TagEnv      string
}

type Fleet struct {
	Manifest     string
	RepoSrc      string
	BuildContext string
	LogDir       string
	GitBackend   GitBackend
	Compose      Compose
}
