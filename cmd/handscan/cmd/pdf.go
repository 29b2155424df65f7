package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MeKo-Tech/handscan/internal/pdf"
	"github.com/spf13/cobra"
)

func newPDFCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pdf <file...>",
		Short: "Detect handwriting in the images of PDF pages",
		Long: `Extract the embedded page images of scanned PDFs and analyze each one.

Examples:
  handscan pdf notebook.pdf
  handscan pdf notebook.pdf --pages 1-3,5 --format json
  handscan pdf locked.pdf --password secret --text-layer`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			flags := cmd.Flags()

			format := cfg.Output.Format
			overrideString(flags, "format", &format)
			if format == "" {
				format = outputFormatText
			}
			if err := validateFormat(format, outputFormatText, outputFormatJSON); err != nil {
				return err
			}
			outputFile := cfg.Output.File
			overrideString(flags, "output", &outputFile)
			pages, _ := flags.GetString("pages")

			pc := pdf.DefaultProcessorConfig()
			overrideInt(flags, "workers", &pc.MaxWorkers)
			pc.TextLayer, _ = flags.GetBool("text-layer")
			user, _ := flags.GetString("password")
			owner, _ := flags.GetString("owner-password")
			if user != "" || owner != "" {
				pc.Credentials = &pdf.Credentials{UserPassword: user, OwnerPassword: owner}
			}

			analyzer, err := a.analyzer(analysisOptions(cfg, flags))
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd)
			defer cancel()

			docs, err := pdf.NewProcessor(analyzer, pc).ProcessFiles(ctx, args, pages)
			if err != nil {
				return err
			}

			var content string
			if format == outputFormatJSON {
				data, err := json.MarshalIndent(docs, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal results: %w", err)
				}
				content = string(data)
			} else {
				content = formatDocuments(docs)
			}
			return writeOutput(cmd.OutOrStdout(), outputFile, content)
		},
	}

	flags := cmd.Flags()
	addAnalysisFlags(flags)
	flags.StringP("format", "f", "", "output format: text, json")
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.String("pages", "", "page range, e.g. 1-3,5 (default: all pages)")
	flags.String("password", "", "user password for encrypted PDFs")
	flags.String("owner-password", "", "owner password for encrypted PDFs")
	flags.Bool("text-layer", false, "also print each page's embedded text")
	flags.IntP("workers", "w", 0, "images analyzed in parallel per document")
	return cmd
}

func formatDocuments(docs []*pdf.DocumentResult) string {
	var b strings.Builder
	for i, doc := range docs {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "# %s (%d pages)\n", doc.Filename, doc.TotalPages)
		for _, page := range doc.Pages {
			fmt.Fprintf(&b, "\n## Page %d\n", page.PageNumber)
			if len(page.Images) == 0 {
				b.WriteString("(no images)\n")
			}
			for _, img := range page.Images {
				switch {
				case img.Err != nil:
					b.WriteString(img.Error + "\n")
				case img.Result != nil:
					b.WriteString(img.Result.DisplayText() + "\n")
				}
			}
			if page.TextLayer != "" {
				b.WriteString("\n[text layer]\n" + page.TextLayer + "\n")
			}
		}
	}
	return b.String()
}
