package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/BurntSushi/toml"
	"github.com/iancoleman/strcase"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/MichealWayne/svgs2fonts-sub000/internal/codepoint"
	"github.com/MichealWayne/svgs2fonts-sub000/internal/config"
	"github.com/MichealWayne/svgs2fonts-sub000/internal/errors"
	"github.com/MichealWayne/svgs2fonts-sub000/internal/logging"
	"github.com/MichealWayne/svgs2fonts-sub000/internal/scanner"
)

var listCmd = &cobra.Command{
	Use:     "list [src]",
	Aliases: []string{"l"},
	Short:   "List icons and their assigned codepoints without building",
	Long: `List scans src and prints the codepoint each icon would receive,
using the same stable assignment the build command uses. Nothing is
written to disk, so it is safe to run against a live project.

Examples:
  svgs2fonts list ./icons
  svgs2fonts list ./icons --format json > codepoints.json
  svgs2fonts list ./icons -f csv --name brandfont
  svgs2fonts list ./icons --codepoints pinned.yml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

var (
	listFormat       string
	listName         string
	listUnicodeStart codepointValue
	listUnicodeEnd   codepointValue
	listCodepoints   string
)

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "output format (table, json, yaml, toml, csv)")
	listCmd.Flags().StringVarP(&listName, "name", "n", config.DefaultFontName, "font name used for CSS class names")
	listCmd.Flags().Var(&listUnicodeStart, "unicode-start", "first codepoint of the assignment range")
	listCmd.Flags().Var(&listUnicodeEnd, "unicode-end", "last codepoint of the assignment range")
	listCmd.Flags().StringVar(&listCodepoints, "codepoints", "", "YAML file pinning icon names to codepoints")
}

// iconEntry is one row of list output, shared by every format.
type iconEntry struct {
	Name      string `json:"name" yaml:"name" toml:"name"`
	Codepoint string `json:"codepoint" yaml:"codepoint" toml:"codepoint"`
	Entity    string `json:"entity" yaml:"entity" toml:"entity"`
	Class     string `json:"class" yaml:"class" toml:"class"`
	Path      string `json:"path" yaml:"path" toml:"path"`
}

// iconCatalog wraps the entries for formats that need a top-level table.
type iconCatalog struct {
	Font  string      `toml:"font"`
	Icons []iconEntry `toml:"icons"`
}

func runList(cmd *cobra.Command, args []string) error {
	if err := validateChoice("format", listFormat, []string{"table", "json", "yaml", "toml", "csv"}); err != nil {
		return err
	}

	src := ""
	if len(args) > 0 {
		src = args[0]
	} else {
		src = viper.GetString("input.src")
	}
	if src == "" {
		return errors.NewConfigurationError("input.src", "source directory is required")
	}

	start, end := rune(config.DefaultUnicodeStart), rune(config.DefaultUnicodeEnd)
	if listUnicodeStart.set {
		start = listUnicodeStart.cp
	}
	if listUnicodeEnd.set {
		end = listUnicodeEnd.cp
	}
	if start >= end {
		return errors.NewConfigurationError("font.unicode_start", "range start must be below range end")
	}

	var overrides map[string]rune
	if listCodepoints != "" {
		loaded, err := config.LoadCodepoints(listCodepoints)
		if err != nil {
			return err
		}
		overrides = loaded
	}

	sources, err := scanner.New(logging.Discard()).Scan(src)
	if err != nil {
		return err
	}

	assigner := codepoint.New(start, end, overrides)
	entries := make([]iconEntry, 0, len(sources))
	for _, source := range sources {
		cp, err := assigner.Assign(source.Name)
		if err != nil {
			return err
		}
		entries = append(entries, iconEntry{
			Name:      source.Name,
			Codepoint: fmt.Sprintf("U+%04X", cp),
			Entity:    fmt.Sprintf("&#x%x;", cp),
			Class:     listName + "-" + strcase.ToKebab(source.Name),
			Path:      source.Path,
		})
	}

	out := cmd.OutOrStdout()
	switch listFormat {
	case "json":
		return listJSON(out, entries)
	case "yaml":
		return listYAML(out, entries)
	case "toml":
		return listTOML(out, listName, entries)
	case "csv":
		return listCSV(out, entries)
	default:
		return listTable(out, entries)
	}
}

func listTable(w io.Writer, entries []iconEntry) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCODEPOINT\tENTITY\tCLASS\tFILE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Name, e.Codepoint, e.Entity, e.Class, e.Path)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nTotal: %d icons\n", len(entries))
	return err
}

func listJSON(w io.Writer, entries []iconEntry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func listYAML(w io.Writer, entries []iconEntry) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(entries)
}

func listTOML(w io.Writer, font string, entries []iconEntry) error {
	return toml.NewEncoder(w).Encode(iconCatalog{Font: font, Icons: entries})
}

func listCSV(w io.Writer, entries []iconEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name", "codepoint", "entity", "class", "path"}); err != nil {
		return err
	}
	for _, e := range entries {
		if err := cw.Write([]string{e.Name, e.Codepoint, e.Entity, e.Class, e.Path}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
