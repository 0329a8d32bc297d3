package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/aretw0/kiosk"
	"github.com/aretw0/kiosk/internal/presentation/tui"
	"github.com/aretw0/kiosk/pkg/domain"
	"github.com/aretw0/kiosk/pkg/runner"
)

// ChatOptions configures a console conversation.
type ChatOptions struct {
	Options

	// User is the username the conversation runs as. Empty uses $USER.
	User string
	// JSON switches to line-delimited JSON input and output.
	JSON bool
	// Style is the glamour style. Empty picks one from the terminal.
	Style string
	// Plain disables markdown rendering and the banner.
	Plain bool
}

// RunChat runs a console conversation against a shop built from opts.
func RunChat(ctx context.Context, opts ChatOptions, in io.Reader, out io.Writer) error {
	logger := CreateLogger(opts.LogLevel, opts.Debug)
	rt, err := BuildShop(opts.Options, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Warn("Failed to close feed", "err", err)
		}
	}()

	if rt.Degraded != nil && !opts.JSON {
		printSystemMessage(out, "Catalog unavailable (%v). Serving the default catalog.", rt.Degraded.Err)
	}

	interactive := !opts.JSON && !opts.Plain && isTerminal(out)
	runnerOpts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithIO(in, out),
		runner.WithIdentity(chatIdentity(opts.User)),
	}
	switch {
	case opts.JSON:
		runnerOpts = append(runnerOpts, runner.WithInputHandler(runner.NewJSONHandler(in, out)), runner.WithHeadless(true))
	case interactive:
		tui.PrintBanner(out, rt.Shop.Name, kiosk.Version)
		runnerOpts = append(runnerOpts, runner.WithRenderer(tui.NewRenderer(opts.Style, 80)))
	default:
		runnerOpts = append(runnerOpts, runner.WithHeadless(opts.Plain))
	}

	if err := runner.NewRunner(runnerOpts...).Run(ctx, rt.Shop); err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}
	return nil
}

func chatIdentity(user string) domain.Identity {
	if user = strings.TrimSpace(user); user == "" {
		user = os.Getenv("USER")
	}
	if user == "" {
		return runner.DefaultIdentity
	}
	return domain.Identity{Username: user}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
