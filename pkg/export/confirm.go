package export

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// ErrOverwriteDeclined is returned when an existing output may not be replaced.
var ErrOverwriteDeclined = errors.New("refusing to overwrite existing file")

// isTerminal checks if stdin is connected to a terminal
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// confirm runs the prompt; swapped in tests.
var confirm = func(title string) (bool, error) {
	ok := false
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Value(&ok).
				Affirmative("Overwrite").
				Negative("Cancel"),
		),
	).WithTheme(huh.ThemeDracula())
	if err := form.Run(); err != nil {
		return false, err
	}
	return ok, nil
}

// ConfirmOverwrite decides whether path may be written. Missing files and
// force always pass; otherwise the user is asked, and without a terminal the
// answer is ErrOverwriteDeclined.
func ConfirmOverwrite(path string, force bool) error {
	if force {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if !isTerminal() {
		return fmt.Errorf("%w %s (pass --yes to replace it)", ErrOverwriteDeclined, path)
	}
	ok, err := confirm(fmt.Sprintf("%s exists. Overwrite?", path))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w %s", ErrOverwriteDeclined, path)
	}
	return nil
}
