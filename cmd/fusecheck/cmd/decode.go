package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceFuse/pkg/bitcodec"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <fuse-string>",
	Short: "Expand a fuse string and show its hex value",
	Long: `Decode a fuse string that is either binary or run-length encoded
(A<n> = n zero bits, B<n> = n one bits) and print its binary and hex forms.
QDF patterns holding m/s/x placeholders are analysed instead.

Examples:
  fusecheck decode A5BA2B3
  fusecheck decode 10100101
  fusecheck decode mm01s1`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}

func runDecode(cmd *cobra.Command, args []string) error {
	input := strings.TrimSpace(args[0])
	if input == "" {
		return fmt.Errorf("empty fuse string")
	}

	bits := input
	if bitcodec.IsBinary(input) || bitcodec.IsRLE(input) {
		bits = bitcodec.Normalize(input)
	}
	stats, _ := bitcodec.Analyze(bits)

	fmt.Printf("Input:   %s\n", input)
	fmt.Printf("Binary:  %s\n", bits)
	fmt.Printf("Hex:     %s\n", bitcodec.BinaryToHex(bits))
	fmt.Printf("Bits:    %d (static %d, dynamic %d, sort %d)\n",
		stats.RegisterSize, stats.StaticBits, stats.DynamicBits, stats.SortBits)
	return nil
}
