/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Willmo3/will-zip/pkg/compressor"
	"github.com/Willmo3/will-zip/pkg/di"
)

// Exit codes reported by the root command
const (
	exitOK        = 0
	exitUsage     = 1
	exitIO        = 2
	exitCorrupt   = 3
	exitTruncated = 4
)

// container holds dependencies injected by main
var container *di.Container

// SetContainer injects the dependency container
func SetContainer(c *di.Container) {
	container = c
}

// rootOptions collects the flags of the root command
type rootOptions struct {
	input     string
	output    string
	zip       bool
	extract   bool
	useStdin  bool
	useStdout bool
	compact   bool
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wz",
	Short: "will-zip - Huffman byte-stream compressor",
	Long: `will-zip compresses arbitrary byte streams with frequency-built Huffman
codes and restores them losslessly from its artifact format.

Examples:
  wz -z -i notes.txt -o notes.wz
  wz -x -i notes.wz -o notes.txt
  cat notes.txt | wz -z -r -p > notes.wz`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		usage, _ := cmd.Flags().GetBool("usage")
		if usage {
			_ = cmd.Usage()
			return
		}

		var opts rootOptions
		opts.input, _ = cmd.Flags().GetString("input")
		opts.output, _ = cmd.Flags().GetString("output")
		opts.zip, _ = cmd.Flags().GetBool("zip")
		opts.extract, _ = cmd.Flags().GetBool("extract")
		opts.useStdin, _ = cmd.Flags().GetBool("stdin")
		opts.useStdout, _ = cmd.Flags().GetBool("stdout")
		opts.compact, _ = cmd.Flags().GetBool("compact")

		if code := runRoot(opts, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr()); code != exitOK {
			os.Exit(code)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(exitUsage)
	}
}

func init() {
	rootCmd.Flags().StringP("input", "i", "", "Input file path")
	rootCmd.Flags().StringP("output", "o", "", "Output file path")
	rootCmd.Flags().BoolP("zip", "z", false, "Compress the input")
	rootCmd.Flags().BoolP("extract", "x", false, "Extract a compressed artifact")
	rootCmd.Flags().BoolP("usage", "u", false, "Print usage and exit")
	rootCmd.Flags().BoolP("stdin", "r", false, "Read input from stdin")
	rootCmd.Flags().BoolP("stdout", "p", false, "Write output to stdout")
	rootCmd.Flags().Bool("compact", false, "Use the compact frequency table encoding")
}

// runRoot validates options and performs the requested codec operation
func runRoot(opts rootOptions, stdin io.Reader, stdout, stderr io.Writer) int {
	if opts.zip == opts.extract {
		fmt.Fprintln(stderr, "Error: exactly one of --zip or --extract is required")
		return exitUsage
	}
	if opts.useStdin == (opts.input != "") {
		fmt.Fprintln(stderr, "Error: exactly one of --input or --stdin is required")
		return exitUsage
	}
	if opts.useStdout == (opts.output != "") {
		fmt.Fprintln(stderr, "Error: exactly one of --output or --stdout is required")
		return exitUsage
	}

	var data []byte
	var err error
	if opts.useStdin {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(opts.input)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error reading input: %v\n", err)
		return exitIO
	}

	var out []byte
	if opts.zip {
		codec := compressor.NewCodec(compressor.CodecConfig{CompactTable: opts.compact})
		out = codec.Compress(data)
	} else {
		out, err = compressor.Decompress(data)
		if err != nil {
			fmt.Fprintf(stderr, "Error extracting: %v\n", err)
			return decodeExitCode(err)
		}
	}

	if opts.useStdout {
		_, err = stdout.Write(out)
	} else {
		err = os.WriteFile(opts.output, out, 0644)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error writing output: %v\n", err)
		return exitIO
	}

	return exitOK
}

// decodeExitCode maps a decompress failure to the documented exit codes
func decodeExitCode(err error) int {
	if errors.Is(err, compressor.ErrTruncatedInput) {
		return exitTruncated
	}
	return exitCorrupt
}
