package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewFileCmd создаёт группу команд для управления файлами.
func NewFileCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file",
		Short: "Manage uploaded files",
	}

	cmd.AddCommand(
		newFileListCmd(clientFn, outputFn),
		newFileUploadCmd(clientFn, outputFn),
		newFileShowCmd(clientFn, outputFn),
		newFileDeleteCmd(clientFn, outputFn),
		newFileOrphansCmd(clientFn, outputFn),
	)

	return cmd
}

func fileRows(files []FileResponse) [][]string {
	rows := make([][]string, len(files))
	for i, f := range files {
		batch := ""
		if f.BatchID > 0 {
			batch = formatID(f.BatchID)
		}
		rows[i] = []string{
			formatID(f.ID), f.OriginalFilename, formatID(f.Size), f.MimeType, batch, f.CreatedAt,
		}
	}
	return rows
}

var fileHeaders = []string{"ID", "NAME", "SIZE", "TYPE", "BATCH", "CREATED"}

func newFileListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all files",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			files, err := client.ListFiles()
			if err != nil {
				return err
			}

			out.Print(fileHeaders, fileRows(files), files)
			return nil
		},
	}
}

func newFileUploadCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var batchID int64

	cmd := &cobra.Command{
		Use:   "upload PATH",
		Short: "Upload a CSV or Excel file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			file, err := client.UploadFile(args[0], batchID)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("File uploaded: %d", file.ID))
			out.Print(fileHeaders, fileRows([]FileResponse{*file}), file)
			return nil
		},
	}

	cmd.Flags().Int64Var(&batchID, "batch", 0, "Attach the file to a batch")

	return cmd
}

func newFileShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show file details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			file, err := client.GetFile(id)
			if err != nil {
				return err
			}

			out.Print(fileHeaders, fileRows([]FileResponse{*file}), file)
			return nil
		},
	}
}

func newFileDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete file and strip its references from flows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			report, err := client.DeleteFile(id)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("File %d deleted", id))
			printReport(out, report)
			return nil
		},
	}
}

func newFileOrphansCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "orphans",
		Short: "List files not referenced by any flow",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			files, err := client.OrphanedFiles()
			if err != nil {
				return err
			}

			out.Print(fileHeaders, fileRows(files), files)
			return nil
		},
	}
}
