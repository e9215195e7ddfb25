/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package ops

import (
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"
)

// CommandGroup represents the operational classification of commands
type CommandGroup string

const (
	GroupPublish CommandGroup = "publish" // publish, publish one
	GroupInspect CommandGroup = "inspect" // list, status
	GroupSupport CommandGroup = "support" // config, version
)

// groupOrder is the order groups appear in help output.
var groupOrder = []CommandGroup{GroupPublish, GroupInspect, GroupSupport}

// Title is the heading used for the group in help output.
func (g CommandGroup) Title() string {
	switch g {
	case GroupPublish:
		return "Publishing Commands"
	case GroupInspect:
		return "Inspection Commands"
	case GroupSupport:
		return "Support Commands"
	default:
		return string(g)
	}
}

// CommandRegistration represents a registered command with its classification
type CommandRegistration struct {
	Name        string
	Group       CommandGroup
	Command     *cobra.Command
	Description string
}

// Registry manages command classifications for one command tree.
type Registry struct {
	mu         sync.RWMutex
	commands   map[string]*CommandRegistration
	groupIndex map[CommandGroup][]*CommandRegistration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		commands:   make(map[string]*CommandRegistration),
		groupIndex: make(map[CommandGroup][]*CommandRegistration),
	}
}

// Register adds a command to the registry under its cobra name and short description.
func (r *Registry) Register(group CommandGroup, cmd *cobra.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := cmd.Name()
	if _, exists := r.commands[name]; exists {
		return fmt.Errorf("command %s already registered", name)
	}

	registration := &CommandRegistration{
		Name:        name,
		Group:       group,
		Command:     cmd,
		Description: cmd.Short,
	}

	r.commands[name] = registration
	r.groupIndex[group] = append(r.groupIndex[group], registration)

	return nil
}

// GetCommand returns a registered command by name
func (r *Registry) GetCommand(name string) (*CommandRegistration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, exists := r.commands[name]
	return cmd, exists
}

// GetCommandsByGroup returns all commands in a specific group
func (r *Registry) GetCommandsByGroup(group CommandGroup) []*CommandRegistration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*CommandRegistration(nil), r.groupIndex[group]...)
}

// WriteHelp prints the grouped command overview.
func (r *Registry) WriteHelp(w io.Writer) error {
	for _, group := range groupOrder {
		cmds := r.GetCommandsByGroup(group)
		if len(cmds) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s:\n", group.Title()); err != nil {
			return err
		}
		for _, c := range cmds {
			if _, err := fmt.Fprintf(w, "  %-12s %s\n", c.Name, c.Description); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
