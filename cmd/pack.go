package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/entforge/entkit"
)

var (
	packCompress   bool
	packDecompress bool
)

var packCmd = &cobra.Command{
	Use:   "pack [source] [destination]",
	Short: "Compress or decompress an entities container",
	Long: `Converts between plain text and the compressed container format
(16-byte size header followed by the compressed payload).
Example) entkit pack -d e1m1.entities e1m1.txt`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 2 {
			fmt.Println("error: Please provide a source and a destination path")
			os.Exit(1)
		}
		if packCompress == packDecompress {
			fmt.Println("error: Specify either -c (compress) or -d (decompress)")
			os.Exit(1)
		}

		if err := packFile(args[0], args[1], packCompress); err != nil {
			fmt.Printf("error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	packCmd.Flags().BoolVarP(&packCompress, "compress", "c", false, "Compress the source file to the destination file")
	packCmd.Flags().BoolVarP(&packDecompress, "decompress", "d", false, "Decompress the source file to the destination file")
}

func packFile(src, dst string, compress bool) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	var out []byte
	if compress {
		if entkit.IsCompressed(data) {
			return fmt.Errorf("%s is already compressed", src)
		}
		if out, err = entkit.Compress(data); err != nil {
			return err
		}
		fmt.Printf("compressed %s to %s\n", src, dst)
	} else {
		if out, err = entkit.Decompress(data); err != nil {
			return err
		}
		fmt.Printf("decompressed %s to %s\n", src, dst)
	}
	return os.WriteFile(dst, out, 0o644)
}
