package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/lmflux/memory"
	"github.com/hupe1980/lmflux/tool"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the built-in tools",
	RunE:  runTools,
}

var toolsJSON bool

func init() {
	toolsCmd.Flags().BoolVar(&toolsJSON, "json", false, "Print the tool definitions as JSON")
}

type clockArgs struct {
	Timezone string `json:"timezone,omitempty" description:"IANA time zone such as Europe/Berlin. Defaults to UTC"`
}

type calcArgs struct {
	A  float64 `json:"a" description:"Left operand"`
	B  float64 `json:"b" description:"Right operand"`
	Op string  `json:"op" description:"One of add, sub, mul, div"`
}

func currentTime(_ context.Context, in clockArgs) (any, error) {
	loc := time.UTC
	if in.Timezone != "" {
		l, err := time.LoadLocation(in.Timezone)
		if err != nil {
			return nil, tool.NewToolError("current_time", "unknown time zone "+in.Timezone, tool.CodeValidation)
		}
		loc = l
	}
	return map[string]any{"time": time.Now().In(loc).Format(time.RFC3339), "timezone": loc.String()}, nil
}

func calculate(_ context.Context, in calcArgs) (any, error) {
	switch strings.ToLower(in.Op) {
	case "add":
		return in.A + in.B, nil
	case "sub":
		return in.A - in.B, nil
	case "mul":
		return in.A * in.B, nil
	case "div":
		if in.B == 0 {
			return nil, errors.New("division by zero")
		}
		return in.A / in.B, nil
	}
	return nil, fmt.Errorf("unsupported operation %q", in.Op)
}

// builtinTools returns the tools handed to CLI agents, with notes kept in store.
func builtinTools(store memory.Store) ([]*tool.Tool, error) {
	clock, err := tool.FromFunc("current_time", "Returns the current time", currentTime)
	if err != nil {
		return nil, err
	}
	calc, err := tool.FromFunc("calculator", "Applies a basic arithmetic operation to two numbers", calculate)
	if err != nil {
		return nil, err
	}
	tools := append([]*tool.Tool{clock, calc}, tool.StateTools()...)
	return append(tools, memory.Tools(store)...), nil
}

func runTools(cmd *cobra.Command, _ []string) error {
	tools, err := builtinTools(memory.NewInMemoryStore())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if toolsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(tool.Definitions(tools))
	}

	fmt.Fprintln(out, titleStyle.Render("Built-in tools"))
	fmt.Fprintln(out)
	for _, t := range tools {
		fmt.Fprintf(out, "%s  %s\n", valueStyle.Render(t.Name()), t.Description())
		if params := paramNames(t); params != "" {
			fmt.Fprintf(out, "    %s %s\n", labelStyle.Render("params:"), params)
		}
	}
	return nil
}

func paramNames(t *tool.Tool) string {
	props, _ := t.Parameters()["properties"].(map[string]any)
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
