package main

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"barreau-extractor/internal/types"
)

var sitesFile string

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List the registered bar directories",
	RunE: func(cmd *cobra.Command, _ []string) error {
		registry, err := loadRegistry(sitesFile)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Site", "Barreau", "Mode", "Convention", "Directory"})
		for _, def := range registry.Definitions() {
			mode := types.ModeStatic
			if def.Scripted {
				mode = types.ModeScripted
			}
			t.AppendRow(table.Row{def.Name, def.Title, mode, types.ParseConvention(def.Convention), def.ListURL})
		}
		t.Render()
		return nil
	},
}

func init() {
	sitesCmd.Flags().StringVar(&sitesFile, "sites", "", "YAML file with additional site definitions")
	rootCmd.AddCommand(sitesCmd)
}
