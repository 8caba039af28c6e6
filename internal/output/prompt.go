package output

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"golang.org/x/term"
)

// Prompter collects interactive operator input. Commands consume this
// interface so the orchestration core never touches a terminal directly.
type Prompter interface {
	Confirm(prompt string) (bool, error)
	Input(prompt, defaultValue string) (string, error)
	Secret(prompt string) (string, error)
	NewSecret(prompt string) (string, error)
	Acknowledge(prompt string) error
}

// SurveyPrompter prompts on the attached terminal.
type SurveyPrompter struct{}

// NewPrompter returns a terminal-backed prompter.
func NewPrompter() *SurveyPrompter {
	return &SurveyPrompter{}
}

// Confirm prompts the user to confirm an action with a yes/no question.
func (p *SurveyPrompter) Confirm(prompt string) (bool, error) {
	result := false
	c := &survey.Confirm{
		Message: prompt,
	}
	err := survey.AskOne(c, &result)
	return result, err
}

// Input prompts for a string with a default value.
func (p *SurveyPrompter) Input(prompt, defaultValue string) (string, error) {
	var result string
	i := &survey.Input{
		Message: prompt,
		Default: defaultValue,
	}
	err := survey.AskOne(i, &result)
	return result, err
}

// Secret prompts for a string hidden from the terminal. When stdin is not
// a terminal the secret is read as a single line instead, so the command
// stays scriptable.
func (p *SurveyPrompter) Secret(prompt string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read secret from stdin: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	var result string
	i := &survey.Password{
		Message: prompt,
	}
	err := survey.AskOne(i, &result)
	return result, err
}

// NewSecret prompts for a new secret twice and requires both entries to
// match.
func (p *SurveyPrompter) NewSecret(prompt string) (string, error) {
	password, err := p.Secret(prompt)
	if err != nil {
		return "", err
	}
	confirm, err := p.Secret("Please confirm your password:")
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", fmt.Errorf("passwords do not match")
	}
	return password, nil
}

// Acknowledge blocks until the user confirms they are ready to continue.
func (p *SurveyPrompter) Acknowledge(prompt string) error {
	var result string
	i := &survey.Input{
		Message: prompt,
	}
	return survey.AskOne(i, &result)
}
