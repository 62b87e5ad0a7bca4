package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tcgworld/tcg-engine/internal/game/card"
	"github.com/tcgworld/tcg-engine/internal/game/rules"
)

func newValidateCmd(root *rootOptions) *cobra.Command {
	var rulesPath, catalogPath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load the rules document and catalog and report what they declare",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if rulesPath == "" {
				rulesPath = cfg.Rules.Path
			}
			if catalogPath == "" {
				catalogPath = cfg.Catalog.Path
			}

			doc, err := rules.LoadDocument(rulesPath)
			if err != nil {
				return err
			}
			catalog, err := card.LoadCatalogFile(catalogPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "rules %s: %q, %d players, %d zones, phases %v\n",
				rulesPath, doc.GameInfo.Name, doc.GameInfo.PlayerCount, len(doc.Zones), doc.PhaseNames())
			fmt.Fprintf(out, "catalog %s: %d cards\n", catalogPath, catalog.Len())
			return nil
		},
	}
	cmd.Flags().StringVar(&rulesPath, "rules", "", "rules document (defaults to rules.path)")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog document (defaults to catalog.path)")
	return cmd
}
