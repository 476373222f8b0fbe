//go:build !gui

package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	opts, a, done := run("limn", "Limn - Illustrated Terminal Reader", os.Args[1:], os.Stdout)
	if done {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := newModel(ctx, a, opts.locator)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	_, err := p.Run()
	cancel()
	a.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
