package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sweta-tw/superfill.ai/internal/dom"
)

// loadPage reads a page from disk. JSON files are layout snapshots; anything
// else is parsed as HTML with the approximate flow layout.
func loadPage(path string) (*dom.Element, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		root, err := dom.DecodeSnapshot(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return root, nil
	}
	root, err := dom.ParseHTML(f, dom.DefaultLayoutOptions())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return root, nil
}
