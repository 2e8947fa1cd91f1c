package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ninejamarkets/market-cli/internal/service/editor"
)

const maxCodeAttempts = 5

var (
	errEmailChangeCancelled = errors.New("email change cancelled")
	errPromptClosed         = fmt.Errorf("%w: no more input", errEmailChangeCancelled)
)

func newProfileEmailCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var newEmail string

	cmd := &cobra.Command{
		Use:   "email",
		Short: "Change the account email after verifying the current and the new address.",
		Long: "Sends a code to the current address, then to the new one, and reads each code from stdin.\n" +
			"Answer 'resend' to get another code or 'cancel' to stop.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			run, err := openProfileRun(cmd, deps, flags)
			if err != nil {
				return err
			}
			defer run.editor.Close()
			p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err := changeEmail(cmd.Context(), run.editor.Email(), p, newEmail); err != nil {
				return run.fail(cmd, err)
			}
			return run.writeProfile(cmd, "Email updated", "email")
		},
	}

	cmd.Flags().StringVar(&newEmail, "new", "", "New email address; prompted for when omitted.")
	addGlobalFlags(cmd, &flags)
	return cmd
}

// changeEmail walks the field through both verifications. The field is
// back in Viewing when it returns.
func changeEmail(ctx context.Context, field *editor.EmailField, p *prompter, newEmail string) error {
	if err := field.RequestChange(ctx); err != nil {
		return err
	}
	if field.State() == editor.AwaitingOldCode {
		label := fmt.Sprintf("Code sent to %s", field.Value())
		if err := submitCode(ctx, field, p, label, field.SubmitOldCode); err != nil {
			_ = field.Cancel()
			return err
		}
	}

	email := strings.TrimSpace(newEmail)
	if email == "" {
		answer, ok := p.ask("New email address: ")
		if !ok {
			_ = field.Cancel()
			return errPromptClosed
		}
		email = answer
	}
	if err := field.SubmitNewEmail(ctx, email); err != nil {
		_ = field.Cancel()
		return err
	}

	label := fmt.Sprintf("Code sent to %s", email)
	if err := submitCode(ctx, field, p, label, field.SubmitNewCode); err != nil {
		_ = field.Cancel()
		return err
	}
	return nil
}

func submitCode(ctx context.Context, field *editor.EmailField, p *prompter, label string, submit func(context.Context, string) error) error {
	var lastErr error
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		answer, ok := p.ask(label + " (or 'resend'): ")
		if !ok {
			return errPromptClosed
		}
		switch strings.ToLower(answer) {
		case "", "cancel":
			return errEmailChangeCancelled
		case "resend":
			if err := field.Resend(ctx); err != nil {
				return err
			}
			continue
		}

		err := submit(ctx, answer)
		if err == nil {
			return nil
		}
		if !errors.Is(err, editor.ErrInvalidCode) {
			return err
		}
		lastErr = err
		if errors.Is(err, editor.ErrCodeExpired) {
			p.say("The code has expired. Answer 'resend' for a new one.")
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%w after %d attempts", editor.ErrInvalidCode, maxCodeAttempts)
	}
	return lastErr
}

// prompter reads answers line by line and writes prompts to out.
type prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{scanner: bufio.NewScanner(in), out: out}
}

func (p *prompter) ask(label string) (string, bool) {
	_, _ = fmt.Fprint(p.out, label)
	if !p.scanner.Scan() {
		_, _ = fmt.Fprintln(p.out)
		return "", false
	}
	return strings.TrimSpace(p.scanner.Text()), true
}

func (p *prompter) say(text string) {
	_, _ = fmt.Fprintln(p.out, text)
}
