package output

import (
	"fmt"
	"strings"

	"github.com/autonolas-community/mechctl/internal/chains"
)

// MaxSelectAttempts bounds the chain selection retry loop.
const MaxSelectAttempts = 3

// ChooseChain prompts for a chain by name with a bounded retry loop. After
// MaxSelectAttempts invalid entries it fails instead of re-prompting.
func ChooseChain(p Prompter, options []chains.ChainType) (chains.ChainType, error) {
	names := make([]string, len(options))
	for i, option := range options {
		names[i] = strings.ToUpper(option.String())
	}
	prompt := fmt.Sprintf("Choose one of the following options %v:", names)

	for attempt := 0; attempt < MaxSelectAttempts; attempt++ {
		answer, err := p.Input(prompt, names[0])
		if err != nil {
			return 0, err
		}
		chain, err := chains.FromName(strings.TrimSpace(answer))
		if err == nil {
			for _, option := range options {
				if option == chain {
					return chain, nil
				}
			}
		}
		fmt.Println("Invalid option selected. Please try again.")
	}
	return 0, fmt.Errorf("no valid chain selected after %d attempts", MaxSelectAttempts)
}
