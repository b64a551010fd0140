// Command dotpromptfmt checks .prompt files: it parses the frontmatter,
// compiles the Picoschema blocks, and compiles the template body, reporting
// the first problem found in each file. Exit status is 1 when any file fails.
//
// Usage:
//
//	dotpromptfmt [-v] path ...
//
// Each path is a .prompt file or a directory scanned recursively. Partials
// are resolved from each file's own directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dotprompt-go/dotprompt"
	"github.com/dotprompt-go/dotprompt/fileregistry"
)

func main() {
	verbose := flag.Bool("v", false, "log every checked file")
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: dotpromptfmt [-v] path ...")
		os.Exit(2)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	failed := 0
	for _, root := range flag.Args() {
		files, err := collectPromptFiles(root)
		if err != nil {
			slog.Error("scan failed", "path", root, "error", err)
			failed++
			continue
		}
		for _, file := range files {
			if err := checkFile(context.Background(), file); err != nil {
				slog.Error("check failed", "file", file, "error", err)
				failed++
				continue
			}
			slog.Info("ok", "file", file)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// collectPromptFiles expands a path into the .prompt files beneath it.
func collectPromptFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}
	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".prompt") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// checkFile parses, resolves metadata, and compiles one .prompt file.
func checkFile(ctx context.Context, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	source := string(data)

	parsed := dotprompt.Parse(source)
	if _, err := dotprompt.ResolveMetadata(ctx, dotprompt.ResolverConfig{}, parsed.PromptMetadata, nil); err != nil {
		return fmt.Errorf("metadata: %w", err)
	}

	dp := dotprompt.New(dotprompt.WithStore(fileregistry.New(filepath.Dir(file))))
	if _, err := dp.Compile(ctx, source, nil); err != nil {
		return fmt.Errorf("template: %w", err)
	}
	return nil
}
