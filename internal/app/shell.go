package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/renzo/client/internal/models"
	"github.com/renzo/client/internal/views"
)

const shellPrompt = "renzo> "

// runShell reads commands from in until EOF or quit. Command failures are
// printed and the shell keeps going.
func runShell(ctx context.Context, d *Dependencies, in io.Reader) error {
	if d.Session.IsAuthenticated() {
		d.Router.Select(ctx, string(d.Router.Current()))
	}
	if err := d.Router.Render(d.Out); err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(d.Out, shellPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(d.Out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		args, err := splitArgs(scanner.Text())
		if err != nil {
			fmt.Fprintf(d.Out, "error: %v\n", err)
			continue
		}
		if len(args) == 0 {
			continue
		}

		quit, err := dispatchShell(ctx, d, args[0], args[1:])
		if err != nil {
			fmt.Fprintf(d.Out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

func dispatchShell(ctx context.Context, d *Dependencies, name string, args []string) (bool, error) {
	switch name {
	case "quit", "exit":
		return true, nil
	case "help":
		fmt.Fprintln(d.Out, "commands:")
		for _, line := range append(usageLines(), shellUsage...) {
			fmt.Fprintf(d.Out, "  %s\n", line)
		}
		return false, nil
	case "view":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: view <%s>", ErrUsage, viewNames())
		}
		return false, showView(views.Parse(args[0]))(ctx, d, nil)
	case "show":
		return false, d.Router.Render(d.Out)
	case "mode":
		d.Auth.ToggleMode()
		return false, d.Router.Render(d.Out)
	case "tag":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: tag <name>", ErrUsage)
		}
		d.Auth.ToggleTag(args[0])
		return false, d.Router.Render(d.Out)
	case "title", "description", "category", "file", "submit":
		return false, editUpload(ctx, d, name, args)
	}

	cmd, ok := lookupCommand(name)
	if !ok {
		return false, fmt.Errorf("%w: unknown command %q, try help", ErrUsage, name)
	}
	if err := cmd.run(ctx, d, args); err != nil {
		return false, err
	}
	switch name {
	case "login", "register":
		d.Router.Select(ctx, string(views.Feed))
		return false, d.Router.Render(d.Out)
	case "logout":
		return false, d.Router.Render(d.Out)
	}
	return false, nil
}

var shellUsage = []string{
	"view <name>",
	"show",
	"mode (switch between login and register forms)",
	"tag <name> (toggle a registration tag)",
	"title|description|category <value>, file <path>, submit (upload form)",
	"quit",
}

func viewNames() string {
	names := make([]string, len(views.All))
	for i, v := range views.All {
		names[i] = string(v)
	}
	return strings.Join(names, "|")
}

func editUpload(ctx context.Context, d *Dependencies, field string, args []string) error {
	if err := requireSession(d); err != nil {
		return err
	}
	if !d.Router.Mounted(views.Upload) {
		d.Router.Select(ctx, string(views.Upload))
	}

	value := strings.Join(args, " ")
	switch field {
	case "title":
		d.Upload.SetTitle(value)
	case "description":
		d.Upload.SetDescription(value)
	case "category":
		if err := d.Upload.SetCategory(models.Category(value)); err != nil {
			return err
		}
	case "file":
		if err := d.Upload.SelectFile(ctx, value); err != nil {
			return err
		}
	case "submit":
		if !d.Upload.CanSubmit() {
			return errors.New("choose a file and enter a title first")
		}
		d.Upload.Submit(ctx)
	}
	return d.Router.Render(d.Out)
}

// splitArgs splits line on whitespace. Single or double quotes group words.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		quote   rune
		inWord  bool
	)
	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			current.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			inWord = true
		case r == ' ' || r == '\t':
			if inWord {
				args = append(args, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 {
		return nil, errors.New("unterminated quote")
	}
	if inWord {
		args = append(args, current.String())
	}
	return args, nil
}
