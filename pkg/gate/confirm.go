package gate

import (
	"fmt"

	"github.com/charmbracelet/huh"
)

// TerminalConfirmer asks the user through an interactive form. A blanket
// assume-yes answers affirmatively without showing anything.
type TerminalConfirmer struct {
	AssumeYes bool
}

var _ Confirmer = TerminalConfirmer{}

func (t TerminalConfirmer) Confirm(question string, def bool) (bool, error) {
	if t.AssumeYes {
		return true, nil
	}

	confirmed := def
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(question).
				Affirmative("Yes").
				Negative("No").
				Value(&confirmed),
		),
	)

	if err := form.Run(); err != nil {
		return false, fmt.Errorf("confirmation prompt failed: %w", err)
	}
	return confirmed, nil
}
