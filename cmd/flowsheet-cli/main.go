// Flowsheet CLI — инструмент командной строки для управления
// flows, файлами и наборами файлов через HTTP API.
//
// Использование:
//
//	flowsheet [--api-url URL] [--user ID] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	flow       Управление flows
//	file       Управление файлами
//	batch      Управление наборами файлов
//	transform  Просмотр доступных преобразований
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Flowsheet/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var userID int64
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "flowsheet",
		Short:         "Flowsheet CLI — spreadsheet flow tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().Int64Var(&userID, "user", 1, "User ID sent as X-User-ID")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL, userID) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewFlowCmd(clientFn, outputFn),
		cli.NewFileCmd(clientFn, outputFn),
		cli.NewBatchCmd(clientFn, outputFn),
		cli.NewTransformCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
