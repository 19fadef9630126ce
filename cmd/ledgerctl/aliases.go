package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ledgerdesk/api/internal/app"
	"github.com/ledgerdesk/api/internal/config"
	"github.com/ledgerdesk/api/internal/txnimport"
)

func newAliasesCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "aliases",
		Short: "Print the effective header alias table as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			if file != "" {
				cfg.ImportAliasesFile = file
			}
			importer, err := app.NewImporter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
			if err != nil {
				return err
			}
			return writeAliases(cmd.OutOrStdout(), importer.Aliases)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Alias override file (defaults to IMPORT_ALIASES_FILE)")
	return cmd
}

func writeAliases(out io.Writer, table txnimport.AliasTable) error {
	// A yaml.Node keeps the canonical field order.
	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, field := range txnimport.Fields {
		list := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, alias := range table[field] {
			list.Content = append(list.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: alias})
		}
		doc.Content = append(doc.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: string(field)}, list)
	}
	root := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
		{Kind: yaml.ScalarNode, Value: "aliases"}, doc,
	}}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return err
	}
	return enc.Close()
}
