package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceFuse/pkg/bitcodec"
	"github.com/OpenTraceLab/OpenTraceFuse/pkg/fusemap"
)

var (
	extractBits  string
	extractStart string
	extractEnd   string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Slice fuse bits out of a register string",
	Long: `Extract the bits selected by start/end address lists from a register
string. Bit 0 is the last character of the string; several ranges are
concatenated in list order.

Examples:
  fusecheck extract --bits 10100101 --start 0 --end 3
  fusecheck extract --bits A4B4 --start 0,6 --end 1,7`,
	Args: cobra.NoArgs,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVar(&extractBits, "bits", "", "register string, binary or run-length encoded")
	extractCmd.Flags().StringVar(&extractStart, "start", "", "start addresses, comma separated")
	extractCmd.Flags().StringVar(&extractEnd, "end", "", "end addresses, comma separated")
	extractCmd.MarkFlagRequired("bits")
	extractCmd.MarkFlagRequired("start")
	extractCmd.MarkFlagRequired("end")
}

func runExtract(cmd *cobra.Command, args []string) error {
	ranges := fusemap.ParseRanges(extractStart, extractEnd)
	if ranges == nil {
		return fmt.Errorf("invalid address lists: start %q, end %q", extractStart, extractEnd)
	}

	bits := bitcodec.Normalize(extractBits)
	slice := fusemap.Extract(bits, ranges)
	if verbose {
		fmt.Printf("Register: %s (%d bits)\n", bits, len(bits))
		fmt.Printf("Start:    %s\n", fusemap.FormatAddresses(ranges, false))
		fmt.Printf("End:      %s\n", fusemap.FormatAddresses(ranges, true))
	}
	fmt.Printf("Bits:     %s\n", slice)
	fmt.Printf("Hex:      %s\n", bitcodec.BinaryToHex(slice))
	fmt.Printf("Width:    %d\n", len(slice))
	return nil
}
