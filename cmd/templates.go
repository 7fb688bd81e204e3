package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/fileops/notifyd/internal/config"
	"github.com/fileops/notifyd/internal/templates"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	labelStyle  = lipgloss.NewStyle().Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// NewTemplatesCmd returns the "templates" command group.
func NewTemplatesCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Inspect and preview notification templates",
	}
	cmd.PersistentFlags().StringVar(&file, "file", "",
		"Templates YAML file (defaults to NOTIFYD_TEMPLATES_FILE)")

	load := func() (*templates.Registry, error) {
		path := file
		if path == "" {
			cfg, err := config.Load()
			if err != nil {
				return nil, err
			}
			path = cfg.TemplatesFile
		}
		reg := templates.NewRegistry()
		if _, err := reg.LoadFile(path); err != nil {
			return nil, err
		}
		return reg, nil
	}

	cmd.AddCommand(newTemplatesListCmd(load), newTemplatesRenderCmd(load))
	return cmd
}

func newTemplatesListCmd(load func() (*templates.Registry, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in and configured templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := load()
			if err != nil {
				return err
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
				Headers("ID", "TYPE", "CHANNELS", "VARIABLES").
				StyleFunc(func(row, _ int) lipgloss.Style {
					if row == table.HeaderRow {
						return headerStyle.Padding(0, 1)
					}
					return cellStyle
				})
			for _, tmpl := range reg.All() {
				t.Row(tmpl.ID, tmpl.Type, strings.Join(tmpl.Channels, ","), strings.Join(tmpl.Variables, ","))
			}

			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
}

func newTemplatesRenderCmd(load func() (*templates.Registry, error)) *cobra.Command {
	var pairs []string
	var varsJSON string

	cmd := &cobra.Command{
		Use:   "render <id>",
		Short: "Render a template with sample variables",
		Example: `  notifyd templates render file_uploaded --var userName=Ada --var fileName=a.txt --var fileSize=12
  notifyd templates render quota_warning --vars-json '{"percent": 92.5}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := load()
			if err != nil {
				return err
			}
			tmpl, ok := reg.Get(args[0])
			if !ok {
				return fmt.Errorf("template %q not found", args[0])
			}

			vars, err := parseVars(pairs, varsJSON)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rendered := templates.Render(tmpl, vars)
			fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Subject:"), rendered.Subject)
			fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Body:"), rendered.Body)
			if rendered.HTMLBody != "" {
				fmt.Fprintf(out, "%s %s\n", labelStyle.Render("HTML:"), rendered.HTMLBody)
			}
			if missing := templates.ValidateVariables(tmpl, vars); len(missing) > 0 {
				fmt.Fprintln(out, warnStyle.Render("missing variables: "+strings.Join(missing, ", ")))
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&pairs, "var", nil, "Variable as name=value (repeatable)")
	cmd.Flags().StringVar(&varsJSON, "vars-json", "", "Variables as a JSON object of strings, numbers and booleans")

	return cmd
}

// parseVars merges --vars-json with --var pairs; pairs win and are always strings.
func parseVars(pairs []string, varsJSON string) (templates.Variables, error) {
	vars := templates.Variables{}
	if varsJSON != "" {
		if err := json.Unmarshal([]byte(varsJSON), &vars); err != nil {
			return nil, fmt.Errorf("parsing --vars-json: %w", err)
		}
	}
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --var %q: expected name=value", p)
		}
		vars[name] = templates.String(value)
	}
	return vars, nil
}
