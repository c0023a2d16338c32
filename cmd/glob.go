// Copyright © 2024 The Expreva authors

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// expandArgs expands arguments, resolving patterns ending with "/..." to all
// .ev files found recursively under the given directory. Non-pattern
// arguments pass through unchanged. Excludes apply to the expanded list.
func expandArgs(args, excludes []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		if dir, ok := strings.CutSuffix(arg, "/..."); ok {
			if dir == "" {
				dir = "."
			}
			files, err := findSourceFiles(dir)
			if err != nil {
				return nil, fmt.Errorf("expanding %s: %w", arg, err)
			}
			out = append(out, files...)
		} else {
			out = append(out, arg)
		}
	}
	return filterExcludes(out, excludes), nil
}

func findSourceFiles(root string) ([]string, error) {
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if filepath.Ext(path) == ".ev" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// filterExcludes drops paths matching any exclude pattern. A pattern matches
// when it equals a path element or glob-matches the base name.
func filterExcludes(paths, excludes []string) []string {
	if len(excludes) == 0 {
		return paths
	}
	var out []string
	for _, path := range paths {
		if !excluded(path, excludes) {
			out = append(out, path)
		}
	}
	return out
}

func excluded(path string, excludes []string) bool {
	base := filepath.Base(path)
	elems := strings.Split(filepath.ToSlash(path), "/")
	for _, pattern := range excludes {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
		for _, elem := range elems {
			if elem == pattern {
				return true
			}
		}
	}
	return false
}
