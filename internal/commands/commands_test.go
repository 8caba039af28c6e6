package commands

import (
	"context"
	"flag"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/autonolas-community/mechctl/internal/deployment"
	"github.com/autonolas-community/mechctl/internal/logger"
)

// scriptedPrompter replays canned answers per prompt kind; the last answer
// of a queue sticks so retry loops keep receiving it.
type scriptedPrompter struct {
	inputs   []string
	confirms []bool
	secrets  []string

	inputsAsked   int
	confirmsAsked int
	secretsAsked  int
}

func (p *scriptedPrompter) Input(_, defaultValue string) (string, error) {
	p.inputsAsked++
	if len(p.inputs) == 0 {
		return defaultValue, nil
	}
	answer := p.inputs[0]
	if len(p.inputs) > 1 {
		p.inputs = p.inputs[1:]
	}
	return answer, nil
}

func (p *scriptedPrompter) Confirm(string) (bool, error) {
	p.confirmsAsked++
	if len(p.confirms) == 0 {
		return false, nil
	}
	answer := p.confirms[0]
	if len(p.confirms) > 1 {
		p.confirms = p.confirms[1:]
	}
	return answer, nil
}

func (p *scriptedPrompter) Secret(string) (string, error) {
	p.secretsAsked++
	if len(p.secrets) == 0 {
		return "", nil
	}
	answer := p.secrets[0]
	if len(p.secrets) > 1 {
		p.secrets = p.secrets[1:]
	}
	return answer, nil
}

func (p *scriptedPrompter) NewSecret(prompt string) (string, error) {
	return p.Secret(prompt)
}

func (p *scriptedPrompter) Acknowledge(string) error { return nil }

type recordedCommand struct {
	name string
	args []string
}

type fakeRunner struct {
	commands []recordedCommand
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) error {
	r.commands = append(r.commands, recordedCommand{name: name, args: args})
	return nil
}

func (r *fakeRunner) joined() []string {
	out := make([]string, len(r.commands))
	for i, cmd := range r.commands {
		out[i] = cmd.name + " " + strings.Join(cmd.args, " ")
	}
	return out
}

// swapDeployment routes deployment construction through the fake runner
// for the duration of the test.
func swapDeployment(t *testing.T, runner *fakeRunner) {
	t.Helper()
	old := newDeployment
	newDeployment = func(home string, log logger.Logger) *deployment.Deployment {
		return deployment.NewWithRunner(home, runner, log)
	}
	t.Cleanup(func() { newDeployment = old })
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(old) })
}

func testLogger() logger.Logger {
	return logger.NewWithWriter(false, io.Discard)
}

func testCLIContext(t *testing.T) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String("rpc", "", "")
	c := cli.NewContext(cli.NewApp(), set, nil)
	c.Context = context.WithValue(context.Background(), loggerKey, testLogger())
	return c
}
