package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mayhemheroes/kiro-editor/config"
	"github.com/mayhemheroes/kiro-editor/editor"
)

func run() error {
	path, err := config.DefaultPath()
	if err != nil {
		path = ""
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	// Raw mode owns the terminal, so diagnostics go to a file or nowhere.
	log.SetOutput(io.Discard)
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	ed := editor.New(editor.Options{
		TabStop:         cfg.TabStop,
		QuitTimes:       cfg.QuitTimes,
		SyntaxHighlight: cfg.SyntaxHighlight,
	}, os.Stdin, os.Stdout)

	if err := ed.Init(); err != nil {
		return err
	}
	defer ed.Close()

	if len(os.Args) > 1 {
		if err := ed.OpenFile(os.Args[1]); err != nil {
			return err
		}
	}

	log.Printf("kiro %s started", editor.VERSION)
	return ed.Run()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "kiro: %v\n", err)
		os.Exit(1)
	}
}
