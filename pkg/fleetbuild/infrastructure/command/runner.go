package command

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"

	applogger "github.com/tss-calculator/fleetbuild/pkg/fleetbuild/application/logger"
)

type Command struct {
	WorkDir    string
	Executable string
	Args       []string
	// Env entries are applied on top of the process environment.
	Env []string
	// Unset names are removed from the inherited environment.
	Unset []string
	// Verbose streams the output into the log instead of capturing it.
	Verbose bool
}

type Runner interface {
	Execute(ctx context.Context, command Command) (string, error)
}

func NewCommandRunner(logger applogger.Logger, silentMode bool) Runner {
	return &runner{
		logger:     logger,
		silentMode: silentMode,
	}
}

type runner struct {
	logger     applogger.Logger
	silentMode bool
}

func (r runner) Execute(ctx context.Context, command Command) (string, error) {
	if command.Executable == "" {
		return "", errors.New("command executable can not be empty")
	}
	// nolint:gosec
	cmd := exec.CommandContext(ctx, command.Executable, command.Args...)
	cmd.Dir = command.WorkDir
	cmd.Env = Environ(os.Environ(), command.Env, command.Unset)
	r.logger.Debug(cmd.String())

	if command.Verbose && !r.silentMode {
		w := r.logger.Writer()
		defer w.Close()
		cmd.Stdout = w
		cmd.Stderr = w
		return "", errors.Wrapf(cmd.Run(), "%v failed", command.Executable)
	}

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	err := cmd.Run()
	return output.String(), errors.Wrapf(err, "%v failed", command.Executable)
}

// Environ returns base without the unset names, with env entries overriding.
func Environ(base, env, unset []string) []string {
	drop := make(map[string]struct{}, len(env)+len(unset))
	for _, name := range unset {
		drop[name] = struct{}{}
	}
	for _, kv := range env {
		name, _, _ := strings.Cut(kv, "=")
		drop[name] = struct{}{}
	}
	result := make([]string, 0, len(base)+len(env))
	for _, kv := range base {
		name, _, _ := strings.Cut(kv, "=")
		if _, ok := drop[name]; ok {
			continue
		}
		result = append(result, kv)
	}
	return append(result, env...)
}
