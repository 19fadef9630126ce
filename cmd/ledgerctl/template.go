package main

import (
	"github.com/spf13/cobra"

	"github.com/ledgerdesk/api/internal/txnimport"
)

func newTemplateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "template",
		Short: "Print the import template CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := txnimport.TemplateCSV()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(body)
			return err
		},
	}
}
