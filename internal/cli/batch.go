package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewBatchCmd создаёт группу команд для управления наборами файлов.
func NewBatchCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Manage file batches",
	}

	cmd.AddCommand(
		newBatchListCmd(clientFn, outputFn),
		newBatchCreateCmd(clientFn, outputFn),
		newBatchShowCmd(clientFn, outputFn),
		newBatchDeleteCmd(clientFn, outputFn),
	)

	return cmd
}

func batchRows(batches []BatchResponse) [][]string {
	rows := make([][]string, len(batches))
	for i, b := range batches {
		flow := ""
		if b.FlowID > 0 {
			flow = formatID(b.FlowID)
		}
		rows[i] = []string{formatID(b.ID), b.Name, b.Description, flow, b.CreatedAt}
	}
	return rows
}

var batchHeaders = []string{"ID", "NAME", "DESCRIPTION", "FLOW", "CREATED"}

func newBatchListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all batches",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			batches, err := client.ListBatches()
			if err != nil {
				return err
			}

			out.Print(batchHeaders, batchRows(batches), batches)
			return nil
		},
	}
}

func newBatchCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var (
		name        string
		description string
		flowID      int64
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			batch, err := client.CreateBatch(CreateBatchRequest{
				Name:        name,
				Description: description,
				FlowID:      flowID,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Batch created: %d", batch.ID))
			out.Print(batchHeaders, batchRows([]BatchResponse{*batch}), batch)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Batch name (required)")
	cmd.Flags().StringVar(&description, "description", "", "Batch description")
	cmd.Flags().Int64Var(&flowID, "flow", 0, "Bind the batch to a flow")
	cmd.MarkFlagRequired("name")

	return cmd
}

func newBatchShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show batch details with files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			batch, err := client.GetBatch(id)
			if err != nil {
				return err
			}

			if out.jsonMode {
				out.JSON(batch)
				return nil
			}

			out.Table(batchHeaders, batchRows([]BatchResponse{*batch}))
			if len(batch.Files) > 0 {
				fmt.Println()
				out.Table(fileHeaders, fileRows(batch.Files))
			}
			return nil
		},
	}
}

func newBatchDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete batch together with its files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			report, err := client.DeleteBatch(id)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Batch %d deleted", id))
			printReport(out, report)
			return nil
		},
	}
}
