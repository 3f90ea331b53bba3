package fleetconfig

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/tss-calculator/fleetbuild/pkg/fleetbuild/application/model"
)

type Compose struct {
	Executable  string   `yaml:"executable"`
	Args        []string `yaml:"args"`
	RegistryEnv string   `yaml:"registryEnv"`
	TagEnv      string   `yaml:"tagEnv"`
}

type Config struct {
	Manifest     string  `yaml:"manifest"`
	RepoSrc      string  `yaml:"repoSrc"`
	BuildContext string  `yaml:"buildContext"`
	LogDir       string  `yaml:"logDir"`
	GitBackend   string  `yaml:"gitBackend"`
	Compose      Compose `yaml:"compose"`
}

// Overrides are command line values taking precedence over the file. Empty fields are ignored.
type Overrides struct {
	Manifest   string
	GitBackend string
}

func Default() Config {
	return Config{
		Manifest:     "images.tsv",
		RepoSrc:      ".",
		BuildContext: "compose-build",
		LogDir:       "logs",
		GitBackend:   model.GitBackendCLI,
		Compose: Compose{
			Executable:  "docker",
			Args:        []string{"compose"},
			RegistryEnv: "REGISTRY",
			TagEnv:      "TAG",
		},
	}
}

// Load reads the config file over the defaults. A missing file yields the defaults.
func Load(filePath string, overrides Overrides) (model.Fleet, error) {
	config := Default()
	configBody, err := os.ReadFile(filePath)
	if err != nil && !os.IsNotExist(err) {
		return model.Fleet{}, errors.Wrapf(err, "failed to read config file: %v", filePath)
	}
	if err == nil {
		err = yaml.Unmarshal(configBody, &config)
		if err != nil {
			return model.Fleet{}, errors.Wrapf(err, "failed to unmarshal config %v", filePath)
		}
	}
	applyOverrides(&config, overrides)
	err = assertConfig(config)
	if err != nil {
		return model.Fleet{}, err
	}
	return MapToFleetConfig(config), nil
}

func MapToFleetConfig(config Config) model.Fleet {
	return model.Fleet{
		Manifest:     config.Manifest,
		RepoSrc:      config.RepoSrc,
		BuildContext: config.BuildContext,
		LogDir:       config.LogDir,
		GitBackend:   config.GitBackend,
		Compose: model.Compose{
			Executable:  config.Compose.Executable,
			Args:        config.Compose.Args,
			RegistryEnv: config.Compose.RegistryEnv,
			TagEnv:      config.Compose.TagEnv,
		},
	}
}

func applyOverrides(config *Config, overrides Overrides) {
	if overrides.Manifest != "" {
		config.Manifest = overrides.Manifest
	}
	if overrides.GitBackend != "" {
		config.GitBackend = overrides.GitBackend
	}
}

func assertConfig(config Config) error {
	switch config.GitBackend {
	case model.GitBackendCLI, model.GitBackendNative:
	default:
		return fmt.Errorf("unexpected git backend %q", config.GitBackend)
	}
	if config.Compose.Executable == "" {
		return errors.New("compose executable can not be empty")
	}
	if config.Compose.RegistryEnv == "" || config.Compose.TagEnv == "" {
		return errors.New("compose registry and tag variables can not be empty")
	}
	if config.BuildContext == "" {
		return errors.New("build context can not be empty")
	}
	return nil
}
