package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/MeKo-Tech/handscan/internal/encoder"
	"github.com/spf13/cobra"
)

func newEncodeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode <file>",
		Short: "Encode a photo as a base64 payload",
		Long: `Encode a photo as the base64 payload sent to the text detection service.

Without --max-kb the file bytes are encoded unchanged. With --max-kb the photo
is re-encoded as JPEG, lowering the quality until the payload fits.

Examples:
  handscan encode note.jpg
  handscan encode note.jpg --max-kb 512 --output payloads/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			maxKB, _ := flags.GetInt("max-kb")
			maxDim, _ := flags.GetInt("max-dimension")
			outDir, _ := flags.GetString("output")
			if maxKB < 0 || maxDim < 0 {
				return errors.New("--max-kb and --max-dimension must not be negative")
			}

			path := args[0]
			var payload string
			if maxKB == 0 && maxDim == 0 {
				payload, err = encoder.EncodeFile(path)
				if err != nil {
					return err
				}
			} else {
				img, err := encoder.LoadImage(path, cfg.Encoder.AutoOrient)
				if err != nil {
					return err
				}
				img = encoder.Downscale(img, maxDim)
				if maxKB == 0 {
					payload, err = encoder.EncodeImage(img, encoder.InitialQuality)
					if err != nil {
						return err
					}
				} else {
					c, err := encoder.CompressAndEncode(img, maxKB)
					if err != nil {
						return err
					}
					if !c.WithinBudget(maxKB) {
						slog.Warn("payload exceeds size budget at minimum quality",
							"file", path, "estimated_kb", c.EstimatedKB, "max_kb", maxKB)
					}
					payload = c.Payload
				}
			}

			if outDir != "" {
				target := siblingPath(path, outDir, "_base64.txt")
				if err := os.MkdirAll(outDir, 0o750); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
				if err := os.WriteFile(target, []byte(payload), 0o600); err != nil {
					return fmt.Errorf("failed to write payload: %w", err)
				}
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Saved payload to %s (%d KB)\n", target, encoder.EstimateKB(len(payload)))
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), payload)
			return err
		},
	}

	cmd.Flags().Int("max-kb", 0, "re-encode as JPEG within this many KB (0 keeps the file bytes)")
	cmd.Flags().Int("max-dimension", 0, "downscale so neither side exceeds this many pixels")
	cmd.Flags().StringP("output", "o", "", "directory that also receives <name>_base64.txt")
	return cmd
}

func newDecodeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <payload-file|->",
		Short: "Decode a base64 payload back into an image file",
		Long: `Decode a base64 payload, read from a file or from stdin ("-"), and write
the bytes to --output.

Examples:
  handscan decode note_base64.txt --output note.jpg
  handscan encode note.jpg | handscan decode - --output copy.jpg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("output")

			var raw []byte
			var err error
			if args[0] == "-" {
				raw, err = io.ReadAll(cmd.InOrStdin())
			} else {
				raw, err = encoder.ReadFile(args[0])
			}
			if err != nil {
				return err
			}

			data, err := encoder.Decode(strings.TrimSpace(string(raw)))
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o600); err != nil {
				return fmt.Errorf("failed to write decoded file: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes (%s) to %s\n",
				len(data), http.DetectContentType(data), out)
			return err
		},
	}

	cmd.Flags().StringP("output", "o", "", "file to write the decoded bytes to")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
