package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// NewFlowCmd создаёт группу команд для управления flows.
func NewFlowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flow",
		Short: "Manage flows",
	}

	cmd.AddCommand(
		newFlowListCmd(clientFn, outputFn),
		newFlowCreateCmd(clientFn, outputFn),
		newFlowShowCmd(clientFn, outputFn),
		newFlowUpdateCmd(clientFn, outputFn),
		newFlowDeleteCmd(clientFn, outputFn),
		newFlowOutputsCmd(clientFn, outputFn),
		newFlowExportCmd(clientFn, outputFn),
	)

	return cmd
}

func newFlowListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all flows",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			flows, err := client.ListFlows()
			if err != nil {
				return err
			}

			headers := []string{"ID", "NAME", "DESCRIPTION", "UPDATED"}
			rows := make([][]string, len(flows))
			for i, f := range flows {
				rows[i] = []string{formatID(f.ID), f.Name, f.Description, f.UpdatedAt}
			}

			out.Print(headers, rows, flows)
			return nil
		},
	}
}

func newFlowCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var (
		name        string
		description string
		docPath     string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new flow",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := CreateFlowRequest{Name: name, Description: description}
			if docPath != "" {
				doc, err := readDocument(docPath)
				if err != nil {
					return err
				}
				req.Document = doc
			}

			flow, err := client.CreateFlow(req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Flow created: %d", flow.ID))
			out.Print(
				[]string{"ID", "NAME", "DESCRIPTION", "CREATED"},
				[][]string{{formatID(flow.ID), flow.Name, flow.Description, flow.CreatedAt}},
				flow,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Flow name (required)")
	cmd.Flags().StringVar(&description, "description", "", "Flow description")
	cmd.Flags().StringVar(&docPath, "file", "", "Path to flow document JSON")
	cmd.MarkFlagRequired("name")

	return cmd
}

func newFlowShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show flow details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			flow, err := client.GetFlow(id)
			if err != nil {
				return err
			}

			if out.jsonMode {
				out.JSON(flow)
				return nil
			}

			doc, _ := json.Marshal(flow.Document)
			out.Table(
				[]string{"ID", "NAME", "DESCRIPTION", "CREATED", "UPDATED"},
				[][]string{{formatID(flow.ID), flow.Name, flow.Description, flow.CreatedAt, flow.UpdatedAt}},
			)
			fmt.Fprintln(os.Stdout)
			fmt.Fprintln(os.Stdout, string(doc))
			return nil
		},
	}
}

func newFlowUpdateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var (
		name        string
		description string
		docPath     string
	)

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update flow name, description or document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			var req UpdateFlowRequest
			if cmd.Flags().Changed("name") {
				req.Name = &name
			}
			if cmd.Flags().Changed("description") {
				req.Description = &description
			}
			if docPath != "" {
				doc, err := readDocument(docPath)
				if err != nil {
					return err
				}
				req.Document = doc
			}

			flow, err := client.UpdateFlow(id, req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Flow updated: %d", flow.ID))
			out.Print(
				[]string{"ID", "NAME", "DESCRIPTION", "UPDATED"},
				[][]string{{formatID(flow.ID), flow.Name, flow.Description, flow.UpdatedAt}},
				flow,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New flow name")
	cmd.Flags().StringVar(&description, "description", "", "New flow description")
	cmd.Flags().StringVar(&docPath, "file", "", "Path to flow document JSON")

	return cmd
}

func newFlowDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete flow and clean up unreferenced files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			report, err := client.DeleteFlow(id)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Flow %d deleted", id))
			printReport(out, report)
			return nil
		},
	}
}

func newFlowOutputsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "outputs ID",
		Short: "List outputs declared by a flow document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			flow, err := client.GetFlow(id)
			if err != nil {
				return err
			}

			outputs, err := client.ListOutputs(flow.Document)
			if err != nil {
				return err
			}

			headers := []string{"KEY", "DESCRIPTOR", "FINAL"}
			rows := make([][]string, len(outputs))
			for i, o := range outputs {
				rows[i] = []string{o.Key, o.Descriptor, strconv.FormatBool(o.IsFinalOutput)}
			}

			out.Print(headers, rows, outputs)
			return nil
		},
	}
}

func newFlowExportCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "Execute flow and download the exported workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			flow, err := client.GetFlow(id)
			if err != nil {
				return err
			}

			filename, content, err := client.ExportFlow(fileIDsOf(flow.Document), flow.Document)
			if err != nil {
				return err
			}

			if outPath == "" {
				outPath = filename
			}
			if err := os.WriteFile(outPath, content, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outPath, err)
			}

			out.Success(fmt.Sprintf("Exported %d bytes to %s", len(content), outPath))
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "", "Output path (default: server-provided filename)")

	return cmd
}

// readDocument читает flow-документ из JSON-файла.
func readDocument(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid flow document %s: %w", path, err)
	}
	return doc, nil
}

// fileIDsOf собирает id файлов из узлов документа для запроса export.
func fileIDsOf(doc map[string]any) []int64 {
	nodes, _ := doc["nodes"].([]any)
	seen := map[int64]struct{}{}
	var ids []int64
	for _, raw := range nodes {
		node, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		data, _ := node["data"].(map[string]any)
		if data == nil {
			continue
		}
		collect := func(v any) {
			if f, ok := v.(float64); ok && f > 0 {
				id := int64(f)
				if _, dup := seen[id]; !dup {
					seen[id] = struct{}{}
					ids = append(ids, id)
				}
			}
		}
		collect(data["fileId"])
		if list, ok := data["fileIds"].([]any); ok {
			for _, v := range list {
				collect(v)
			}
		}
	}
	return ids
}

func parseIDArg(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func printReport(out *Output, report *ReportResponse) {
	out.Print(
		[]string{"FILES DELETED", "BATCHES DELETED", "FLOWS UPDATED"},
		[][]string{{
			strconv.Itoa(report.FilesDeleted),
			strconv.Itoa(report.BatchesDeleted),
			strconv.Itoa(report.FlowsUpdated),
		}},
		report,
	)
}
