package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"recsrc/pkg/plan"
)

func newExplainCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "explain <plan.yaml>",
		Short: "Print the operator tree of a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := plan.LoadFile(args[0])
			if err != nil {
				return err
			}
			compiled, err := plan.Compile(doc)
			if err != nil {
				return err
			}
			defer compiled.Close()

			desc := compiled.Root.Describe()
			out := cmd.OutOrStdout()

			switch strings.ToLower(format) {
			case "text":
				fmt.Fprint(out, renderTree(desc))
			case "yaml":
				data, err := yaml.Marshal(desc)
				if err != nil {
					return err
				}
				fmt.Fprint(out, string(data))
			case "tokens":
				fmt.Fprintln(out, strings.Join(desc.Tokens(), " "))
			default:
				return fmt.Errorf("unknown format %q (want text, yaml or tokens)", format)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, yaml or tokens")
	return cmd
}
