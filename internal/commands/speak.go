package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/meteocli/wx/internal/output"
	"github.com/meteocli/wx/internal/speech"
)

// NewSpeakCmd creates the speak command.
func NewSpeakCmd() *cobra.Command {
	var file, outPath string
	var watch bool

	cmd := &cobra.Command{
		Use:   "speak [text]",
		Short: "Convert text to speech audio",
		Long: `Synthesize text into an audio file.

Text comes from the argument, --file, or stdin (when piped). The audio
is written atomically, so a player looping the file never sees a
partial write. --watch keeps running and re-synthesizes whenever the
text file changes.

Examples:
  wx speak "severe thunderstorm warning until 9 PM"
  wx forecast --plain | wx speak -o forecast.mp3
  wx speak --file announce.txt --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			client := speech.NewClient(app.Config.Speech, app.HTTPClient, app.Log)

			if watch {
				if file == "" {
					return output.ErrUsage("--watch requires --file")
				}
				if len(args) > 0 {
					return output.ErrUsage("--watch takes its text from --file, not an argument")
				}

				run := func(ctx context.Context) error {
					text, err := os.ReadFile(file)
					if err != nil {
						return output.ErrUsage(fmt.Sprintf("cannot read %s: %v", file, err))
					}
					audio, err := client.Synthesize(ctx, string(text))
					if err != nil {
						// Transient failures keep the watch alive; anything
						// else (bad key, rejected text) stops it.
						if e := output.AsError(err); e.Retryable {
							fmt.Printf("speak: %s (still watching)\n", e.Message)
							return nil
						}
						return err
					}
					if err := speech.WriteFile(outPath, audio); err != nil {
						return err
					}
					fmt.Printf("Wrote %s (%d bytes)\n", outPath, len(audio))
					return nil
				}

				if err := run(cmd.Context()); err != nil {
					return err
				}
				fmt.Printf("Watching %s (interrupt to stop)\n", file)
				return speech.Watch(cmd.Context(), file, app.Log, run)
			}

			text, err := speakText(cmd, args, file)
			if err != nil {
				return err
			}

			audio, err := client.Synthesize(cmd.Context(), text)
			if err != nil {
				return err
			}
			if err := speech.WriteFile(outPath, audio); err != nil {
				return err
			}

			return app.Output.OK(map[string]any{
				"file":  outPath,
				"bytes": len(audio),
			}, output.WithSummary(fmt.Sprintf("Wrote %s (%d bytes)", outPath, len(audio))))
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read text from this file")
	cmd.Flags().StringVarP(&outPath, "output", "o", "out.mp3", "Audio output file")
	cmd.Flags().BoolVar(&watch, "watch", false, "Re-synthesize whenever --file changes")

	return cmd
}

// speakText resolves the text to synthesize: argument, --file, then piped
// stdin, in that order.
func speakText(cmd *cobra.Command, args []string, file string) (string, error) {
	if len(args) > 0 && file != "" {
		return "", output.ErrUsage("pass text as an argument or --file, not both")
	}
	if len(args) > 0 {
		return args[0], nil
	}
	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return "", output.ErrUsage(fmt.Sprintf("cannot read %s: %v", file, err))
		}
		return string(b), nil
	}

	if f, ok := cmd.InOrStdin().(*os.File); ok {
		info, err := f.Stat()
		if err == nil && info.Mode()&os.ModeCharDevice != 0 {
			return "", output.ErrUsageHint("no text to speak",
				"Pass text as an argument, with --file, or on stdin")
		}
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", err
	}
	return string(b), nil
}
