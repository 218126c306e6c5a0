// Package gate holds the pre-run checks a fetch batch must pass: the
// trust gate over item metadata and the reproducibility gate over the
// external status feed. Both share one accept/prompt/override policy.
package gate

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/pkgfetch/pkgfetch/pkg/config"
)

// Fixed gate failures. Callers compare with errors.Is.
var (
	ErrNotAuthenticated = errors.New("some packages could not be authenticated")
	ErrNotReproducible  = errors.New("some packages are not reproducible")
)

// Confirmer is the interactive yes/no prompt contract. Implementations
// honor a blanket assume-yes before ever showing a prompt.
type Confirmer interface {
	Confirm(question string, def bool) (bool, error)
}

// Policy parameterizes Decide for one gate: which override flag applies,
// what the flagged list is called, and the fixed texts.
type Policy struct {
	// Override passes the gate unconditionally with a notice.
	Override     bool
	OverrideNote string

	// ListLabel heads the printed list of flagged packages.
	ListLabel string

	// Question is the interactive prompt.
	Question string

	// Err is the fixed failure for a declined or non-interactive gate.
	Err error

	// AllowFlag names the option an automated run should have set.
	AllowFlag string
}

// Decide applies the shared gate policy to a non-empty flagged list:
// override passes with a notice; a caller that disallows prompting fails
// with the fixed error; otherwise the user is asked unless assume-yes or
// quiet suppresses the prompt, in which case only the deprecated force-yes
// still passes.
func Decide(flagged []string, p Policy, opts config.Options, c Confirmer, out io.Writer, promptUser bool) error {
	if opts.Quiet < 2 {
		fmt.Fprintf(out, "WARNING: %s\n", p.ListLabel)
		for _, name := range flagged {
			fmt.Fprintf(out, "  %s\n", name)
		}
	}

	if p.Override {
		if opts.Quiet < 2 {
			fmt.Fprintf(out, "%s\n", p.OverrideNote)
		}
		return nil
	}

	if !promptUser {
		return p.Err
	}

	if opts.Quiet < 2 && !opts.AssumeYes {
		ok, err := c.Confirm(p.Question, false)
		if err != nil {
			return err
		}
		if !ok {
			return p.Err
		}
		return nil
	}

	if opts.ForceYes {
		log.Warn().Msg("--force-yes is deprecated, use one of the options starting with --allow instead")
		return nil
	}

	return fmt.Errorf("%w and -y was used without --%s", p.Err, p.AllowFlag)
}
