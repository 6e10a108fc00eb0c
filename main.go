// draftsmith - action execution and document context core for a CMS
// editing assistant.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/morganforge/draftsmith/internal/config"
	"github.com/morganforge/draftsmith/internal/doccache"
	"github.com/morganforge/draftsmith/internal/docctx"
	"github.com/morganforge/draftsmith/internal/navigate"
	"github.com/morganforge/draftsmith/internal/repo"
	"github.com/morganforge/draftsmith/internal/session"
	"github.com/morganforge/draftsmith/internal/storage"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	cmd := ""
	args := []string{}
	if len(os.Args) > 1 {
		cmd = os.Args[1]
		args = os.Args[2:]
	}

	switch cmd {
	case "", "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Printf("draftsmith %s (%s, built %s)\n", Version, GitCommit, BuildDate)
	case "sessions":
		run(handleSessions, args)
	case "show":
		run(handleShow, args)
	case "search":
		run(handleSearch, args)
	case "context":
		run(handleContext, args)
	case "export":
		run(handleExport, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`draftsmith - CMS assistant action and context core

Usage:
  draftsmith <command> [arguments]

Commands:
  sessions          list conversations grouped by recency
  show <id>         print a conversation with its actions
  search <query>    find conversations by message content
  context <id>      resolve and print a conversation's document context
  export <id>       export a conversation as Markdown
  version           print version information`)
}

// run loads shared dependencies and invokes a handler.
func run(handler func(env *cliEnv, args []string) error, args []string) {
	log := newLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("loading configuration")
	}

	dir, err := cfg.StorageDir()
	if err != nil {
		log.Fatal().Err(err).Msg("resolving storage directory")
	}
	store, err := storage.NewStore(dir)
	if err != nil {
		log.Fatal().Err(err).Msg("opening conversation store")
	}
	store.MaxConversations = cfg.Storage.MaxConversations

	env := &cliEnv{cfg: cfg, store: store, log: log}
	if err := handler(env, args); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if os.Getenv("DRAFTSMITH_DEBUG") != "" {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

// cliEnv carries the dependencies handlers share.
type cliEnv struct {
	cfg   *config.Config
	store *storage.Store
	log   zerolog.Logger
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

func handleSessions(env *cliEnv, args []string) error {
	resolver := docctx.NewResolver(env.log)
	manager := session.NewManager(env.store, resolver, env.log)

	groups, err := manager.Conversations()
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		fmt.Println("No conversations.")
		return nil
	}

	for _, group := range groups {
		fmt.Printf("%s\n", group.Bucket.Label())
		for _, meta := range group.Conversations {
			fmt.Printf("  %s  %-40s  %d messages\n",
				meta.ID, meta.Title, meta.MessageCount)
		}
		fmt.Println()
	}

	more, err := manager.HasMore()
	if err == nil && more {
		fmt.Println("(more conversations not shown)")
	}
	return nil
}

func handleShow(env *cliEnv, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: draftsmith show <conversation-id>")
	}

	conv, err := env.store.Load(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s - %s\n\n", conv.ID, conv.GetTitle())
	for _, msg := range conv.Messages {
		fmt.Printf("[%s] %s\n", msg.Role.DisplayName(), msg.Preview(120))
		if msg.Status == "error" {
			fmt.Printf("  error: %s\n", msg.ErrorText)
		}
		for _, a := range msg.Actions {
			line := fmt.Sprintf("  action %s (%s): %s", a.ID, a.Type, a.Status())
			if res := a.Result(); res != nil {
				line += " - " + res.Message
			}
			if errMsg := a.Err(); errMsg != "" {
				line += " - " + errMsg
			}
			fmt.Println(line)
		}
	}
	return nil
}

func handleSearch(env *cliEnv, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: draftsmith search <query>")
	}

	results, err := env.store.SearchMessages(strings.Join(args, " "))
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No matches.")
		return nil
	}
	for _, meta := range results {
		fmt.Printf("%s  %s\n", meta.ID, meta.Title)
	}
	return nil
}

func handleContext(env *cliEnv, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: draftsmith context <conversation-id>")
	}

	conv, err := env.store.Load(args[0])
	if err != nil {
		return err
	}

	resolver := docctx.NewResolver(env.log)
	resolver.ResetForConversation(conv.ID)
	contexts := resolver.Resolve(conv)
	if len(contexts) == 0 {
		fmt.Println("No documents in context.")
		return nil
	}

	// Best effort: fill in the latest entry's slug from the repository.
	cachePath, err := env.cfg.CachePath()
	if err == nil {
		client := repo.NewHTTPClient(env.cfg.ClientConfig(), env.log)
		cache, cacheErr := doccache.Open(cachePath, client, env.log)
		if cacheErr == nil {
			cache.SetTTL(env.cfg.CacheTTL())
			resolver.EnrichLatest(context.Background(), cache)
			contexts = resolver.Context()
			cache.Close()
		} else {
			env.log.Warn().Err(cacheErr).Msg("document cache unavailable")
		}
	}

	for _, c := range contexts {
		fmt.Printf("%s  type=%s  slug=%s  name=%s\n",
			c.DocumentID, orDash(c.DocumentType), orDash(c.Slug), orDash(c.Name))
	}

	url, err := navigate.ForTargets("structure", resolver.Targets())
	switch err {
	case nil:
		fmt.Printf("\nnavigate: %s\n", url)
	case navigate.ErrAmbiguous:
		fmt.Println("\nnavigate: multiple documents, selection required")
	}
	return nil
}

func handleExport(env *cliEnv, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: draftsmith export <conversation-id>")
	}

	conv, err := env.store.Load(args[0])
	if err != nil {
		return err
	}
	fmt.Print(storage.ExportMarkdown(conv))
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
