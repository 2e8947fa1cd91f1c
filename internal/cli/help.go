package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Shared global flags are registered per command by addGlobalFlags; the root
// help lists them once, in this order, instead of under every command.
var sharedGlobalOptionOrder = []string{
	"format",
	"profile",
	"api-url",
	"token",
	"refresh-token",
	"output",
	"verbose",
}

var commandGroups = []*cobra.Group{
	{ID: "account", Title: "account:"},
	{ID: "profile", Title: "profile:"},
	{ID: "directory", Title: "directory:"},
}

type optionDoc struct {
	name     string
	token    string
	usage    string
	required bool
	global   bool
}

func describeFlag(flag *pflag.Flag, global bool) optionDoc {
	token := "--" + flag.Name
	if flag.Shorthand != "" {
		token += "/-" + flag.Shorthand
	}
	required := false
	if values := flag.Annotations[cobra.BashCompOneRequiredFlag]; len(values) > 0 {
		required = values[0] == "true"
	}
	return optionDoc{
		name:     flag.Name,
		token:    token,
		usage:    strings.TrimSpace(flag.Usage),
		required: required,
		global:   global,
	}
}

func (o optionDoc) String() string {
	var labels []string
	if o.required {
		labels = append(labels, "required")
	}
	if o.global {
		labels = append(labels, "global")
	}
	line := o.token
	if len(labels) > 0 {
		line += " [" + strings.Join(labels, ", ") + "]"
	}
	return line + ": " + o.usage
}

func isSharedGlobalFlag(flag *pflag.Flag) bool {
	values := flag.Annotations[sharedGlobalFlagAnnotation]
	return len(values) > 0 && values[0] == "true"
}

// localOptions documents the flags specific to cmd, sorted by name.
func localOptions(cmd *cobra.Command) []optionDoc {
	var options []optionDoc
	cmd.LocalFlags().VisitAll(func(flag *pflag.Flag) {
		if flag.Hidden || flag.Name == "help" || isSharedGlobalFlag(flag) {
			return
		}
		options = append(options, describeFlag(flag, false))
	})
	slices.SortFunc(options, func(a, b optionDoc) int {
		return strings.Compare(a.name, b.name)
	})
	return options
}

// globalOptions finds the first registration of every shared flag in the tree.
func globalOptions(root *cobra.Command) []optionDoc {
	found := map[string]optionDoc{}
	var walk func(*cobra.Command)
	walk = func(parent *cobra.Command) {
		for _, cmd := range parent.Commands() {
			cmd.LocalFlags().VisitAll(func(flag *pflag.Flag) {
				if _, seen := found[flag.Name]; seen || !isSharedGlobalFlag(flag) {
					return
				}
				found[flag.Name] = describeFlag(flag, true)
			})
			walk(cmd)
		}
	}
	walk(root)

	options := make([]optionDoc, 0, len(found))
	for _, name := range sharedGlobalOptionOrder {
		if option, ok := found[name]; ok {
			options = append(options, option)
		}
	}
	return options
}

func renderRootHelp(out io.Writer, root *cobra.Command) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n\n", root.Name(), root.Short)
	fmt.Fprintf(&b, "usage: %s <command> [options]\n\n", root.Name())

	b.WriteString("global options (accepted by every command):\n")
	root.LocalFlags().VisitAll(func(flag *pflag.Flag) {
		if flag.Name != "help" {
			fmt.Fprintf(&b, "  %s\n", describeFlag(flag, false))
		}
	})
	for _, option := range globalOptions(root) {
		fmt.Fprintf(&b, "  %s\n", option)
	}

	for _, group := range root.Groups() {
		fmt.Fprintf(&b, "\n%s\n", group.Title)
		for _, cmd := range root.Commands() {
			if cmd.GroupID == group.ID && cmd.IsAvailableCommand() {
				fmt.Fprintf(&b, "  %-10s %s\n", cmd.Name(), cmd.Short)
			}
		}
	}

	b.WriteString("\nnotes:\n")
	b.WriteString("  - signup creates customer accounts; merchants log in with --merchant.\n")
	b.WriteString("  - email changes need a code sent to the current address and one sent to the new address.\n")
	b.WriteString("  - list positions (phones, addresses) start at 1.\n")

	b.WriteString("\nfull reference:\n")
	writeReference(&b, root, root.Name())
	_, _ = io.WriteString(out, b.String())
}

func writeReference(b *strings.Builder, parent *cobra.Command, path string) {
	for _, cmd := range parent.Commands() {
		if !cmd.IsAvailableCommand() {
			continue
		}
		fmt.Fprintf(b, "- %s %s\n  %s\n", path, cmd.Use, cmd.Short)
		if options := localOptions(cmd); len(options) > 0 {
			b.WriteString("  options:\n")
			for _, option := range options {
				fmt.Fprintf(b, "    %s\n", option)
			}
		}
		b.WriteByte('\n')
		writeReference(b, cmd, path+" "+cmd.Name())
	}
}
