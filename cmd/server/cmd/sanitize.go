package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrpremium/go-storefront-service/internal/sanitizer"
)

func newSanitizeCommand() *cobra.Command {
	var textOnly bool

	cmd := &cobra.Command{
		Use:   "sanitize [file]",
		Short: "Sanitize a product description",
		Long: `Read a product description from a file (or stdin when no file is
given) and print the markup that is safe to render on the product page.

Examples:
  storefront sanitize description.html
  echo '<b onclick="x()">Hi</b>' | storefront sanitize
  storefront sanitize --text name.txt`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open input: %w", err)
				}
				defer f.Close()
				in = f
			}

			raw, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			var out string
			if textOnly {
				out = sanitizer.Text(string(raw))
			} else {
				out = sanitizer.Sanitize(string(raw))
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}

	cmd.Flags().BoolVar(&textOnly, "text", false, "strip all markup and print plain text")
	return cmd
}
