/*
Package runner implements the console chat transport.

A Runner turns lines typed on a terminal (or JSON lines from a pipe) into
dispatch requests and prints the resulting views.

# Key Components

  - Runner: the conversation loop, opened with /start.
  - IOHandler: decouples how requests are read and views are shown.
  - TextHandler: numbered actions for interactive use ("#2" picks the second).
  - JSONHandler: one JSON object per line, for scripting and tests.
  - SanitizeInput: size, UTF-8 and control character checks shared by every transport.

# Usage

	r := runner.NewRunner(
		runner.WithIdentity(domain.Identity{Username: "alice"}),
		runner.WithRenderer(tui.NewRenderer()),
	)

	if err := r.Run(ctx, shop); err != nil {
		log.Fatal(err)
	}
*/
package runner
