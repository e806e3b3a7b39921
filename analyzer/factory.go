package analyzer

import (
	"errors"

	"github.com/spf13/viper"
)

// Config selects which analyzers the factory assembles.
type Config struct {
	UseAI    bool
	UseRegex bool
}

func FromViper() Config {
	return Config{
		UseAI:    viper.GetBool("analyzer.use_ai"),
		UseRegex: viper.GetBool("analyzer.use_regex"),
	}
}

// New assembles the configured analyzer. A single enabled analyzer is
// returned bare. With both enabled the model member runs first, since it
// recognizes "not a transaction" mail that keyword lists misclassify,
// and the regex parsers serve as the free deterministic fallback.
//
// A nil generator is only a construction error when AI is the sole
// analyzer; in a mixed chain the probabilistic member stays and degrades
// at analyze time, keeping the chain metadata honest about the attempt.
func New(cfg Config, generator TextGenerator, categories CategorySource) (Analyzer, error) {
	switch {
	case !cfg.UseAI && !cfg.UseRegex:
		return nil, errors.New("no analyzers enabled")

	case cfg.UseAI && !cfg.UseRegex:
		if generator == nil {
			return nil, &Error{Code: CodeNoCredential, Analyzer: "ai", Retryable: false}
		}
		return NewProbabilistic(generator, categories), nil

	case cfg.UseRegex && !cfg.UseAI:
		return NewDeterministic(), nil

	default:
		return NewComposite(
			NewProbabilistic(generator, categories),
			NewDeterministic(),
		), nil
	}
}
