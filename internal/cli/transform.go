package cli

import (
	"github.com/spf13/cobra"
)

// NewTransformCmd создаёт группу команд для преобразований.
func NewTransformCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Inspect available transforms",
	}

	cmd.AddCommand(newTransformListCmd(clientFn, outputFn))

	return cmd
}

func newTransformListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List transform types known to the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			types, err := client.ListTransforms()
			if err != nil {
				return err
			}

			rows := make([][]string, len(types))
			for i, t := range types {
				rows[i] = []string{t}
			}

			out.Print([]string{"TYPE"}, rows, types)
			return nil
		},
	}
}
