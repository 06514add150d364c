package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/ports"
)

// Prompter implements ports.Confirmer using stdin/stdout.
type Prompter struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
}

// NewPrompter constructs a prompter referencing stdio. With nil in it reads
// stdin and is only enabled when stdin is a terminal.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	interactive := true
	if in == nil {
		in = os.Stdin
		interactive = isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}
	if out == nil {
		out = os.Stdout
	}
	return &Prompter{
		in:          bufio.NewReader(in),
		out:         out,
		interactive: interactive,
	}
}

// Enabled indicates the prompter can ask the operator.
func (p *Prompter) Enabled() bool {
	return p.interactive
}

// Confirm describes a fix and asks before it is applied.
func (p *Prompter) Confirm(checkID string, tier int, healer domain.Healer) (bool, error) {
	fmt.Fprintf(p.out, "\n%s wants to apply %q (tier %d)\n", checkID, healer.Name, tier)
	for _, step := range healer.Steps {
		fmt.Fprintf(p.out, " - %s\n", step)
	}
	if len(healer.TargetPaths) > 0 {
		fmt.Fprintf(p.out, "Writes: %s\n", strings.Join(healer.TargetPaths, ", "))
	}
	if healer.Warning != "" {
		fmt.Fprintf(p.out, "Warning: %s\n", healer.Warning)
	}
	return p.ask("[y/N]: ")
}

func (p *Prompter) ask(prompt string) (bool, error) {
	fmt.Fprint(p.out, "Apply? ", prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return false, err
	}
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes", nil
}

var _ ports.Confirmer = (*Prompter)(nil)
