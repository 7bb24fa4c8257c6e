/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Command lilscript converts LaTeX role-play scripts to Markdown and reports how
// much of a script is actually spoken.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"lilscript/internal/config"
	"lilscript/internal/crash"
	applog "lilscript/internal/log"
	"lilscript/internal/version"
)

// Globals are flags shared by every command.
type Globals struct {
	Config  string `help:"Config file (default: per-user config.yaml)." type:"path" env:"LIL_CONFIG"`
	Verbose int    `short:"v" type:"counter" help:"Log debug details (repeatable)."`
}

// CLI is the command tree.
type CLI struct {
	Globals

	Convert ConvertCmd `cmd:"" help:"Convert a LaTeX script to Markdown."`
	Stats   StatsCmd   `cmd:"" help:"Print spoken and total word counts of a script."`
	Batch   BatchCmd   `cmd:"" help:"Convert every script matching a glob."`
	Watch   WatchCmd   `cmd:"" help:"Convert scripts in a directory whenever they change."`
	History HistoryCmd `cmd:"" help:"List recorded conversions."`
	Version VersionCmd `cmd:"" help:"Print version information."`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run parses args, loads the config, sets up logging and executes the selected
// command. It returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, opts ...kong.Option) int {
	var cli CLI
	opts = append([]kong.Option{
		kong.Name("lilscript"),
		kong.Description("Convert LaTeX role-play scripts to Markdown and measure how much of them is spoken."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	}, opts...)
	parser, err := kong.New(&cli, opts...)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "lilscript: %v\n", err)
		return 2
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		parser.Errorf("%s", err)
		return 2
	}

	cfg, err := config.Load(cli.Config)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "lilscript: error: %v\n", err)
		return 1
	}
	applog.Init(applog.Options{
		Level:     applog.Verbose(cfg.Logging.Level, cli.Verbose),
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
		Writer:    stderr,
	})
	l := applog.WithComponent("cli")
	l.Debug("start", slog.String("command", kctx.Command()), slog.String("ver", version.String()))
	defer crash.Recover("", args)

	a := &app{ctx: ctx, cfg: cfg, out: stdout}
	if err := kctx.Run(a); err != nil {
		l.Debug("command failed", slog.String("command", kctx.Command()), slog.Any("err", err))
		_, _ = fmt.Fprintf(stderr, "lilscript: error: %v\n", err)
		return 1
	}
	return 0
}
