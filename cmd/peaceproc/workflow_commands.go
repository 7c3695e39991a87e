package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"peaceproc/internal/fileutil"
	"peaceproc/internal/pipeline"
)

type videoResult struct {
	VideoPath   string `json:"video_path"`
	Placeholder bool   `json:"placeholder"`
	SessionID   string `json:"session_id,omitempty"`
}

type promptFlags struct {
	prompt  string
	emotion string
}

func (p *promptFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&p.prompt, "prompt", "p", "", "What the listener needs (defaults to the positional arguments)")
	cmd.Flags().StringVarP(&p.emotion, "emotion", "e", "", "Current emotional state (default neutral)")
}

func (p *promptFlags) resolve(args []string) (string, error) {
	prompt := strings.TrimSpace(p.prompt)
	if prompt == "" {
		prompt = strings.TrimSpace(strings.Join(args, " "))
	}
	if prompt == "" {
		return "", errors.New("a prompt is required (pass --prompt or positional text)")
	}
	return prompt, nil
}

func outputRoot(ctx *commandContext, flag string) (string, error) {
	if root := strings.TrimSpace(flag); root != "" {
		return root, nil
	}
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return "", err
	}
	return cfg.Paths.OutputRoot, nil
}

func sessionOrNew(id string) string {
	if safe := fileutil.SanitizeSegment(id); safe != "" {
		return safe
	}
	return pipeline.NewSessionID(nil)
}

func printVideo(cmd *cobra.Command, asJSON bool, result videoResult) error {
	if asJSON {
		return writeJSON(cmd, result)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Video: %s\n", result.VideoPath)
	if result.SessionID != "" {
		fmt.Fprintf(out, "Session: %s\n", result.SessionID)
	}
	if result.Placeholder {
		fmt.Fprintln(out, "Note: ffmpeg was unavailable; a placeholder marker was written instead of the video")
	}
	return nil
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var flags promptFlags
	var output string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "run [prompt...]",
		Short: "Run the full pipeline and produce a meditation video",
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := flags.resolve(args)
			if err != nil {
				return err
			}
			root, err := outputRoot(ctx, output)
			if err != nil {
				return err
			}
			return ctx.withRuntime(cmd, func(runCtx context.Context, rt *pipeline.Runtime) error {
				outcome, err := rt.Orchestrator.RunPipeline(runCtx, pipeline.RunRequest{
					UserPrompt:     prompt,
					EmotionalState: flags.emotion,
					OutputPath:     pipeline.TempRunPath(root, nil),
				})
				if err != nil {
					return fmt.Errorf("pipeline execution failed: %w", err)
				}
				return printVideo(cmd, asJSON, videoResult{VideoPath: outcome.Path, Placeholder: outcome.Placeholder})
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output root (session lands in <root>/temp/<timestamp>)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newTextCommand(ctx *commandContext) *cobra.Command {
	var flags promptFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "text [prompt...]",
		Short: "Generate a meditation script only",
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := flags.resolve(args)
			if err != nil {
				return err
			}
			return ctx.withRuntime(cmd, func(runCtx context.Context, rt *pipeline.Runtime) error {
				text, err := rt.Orchestrator.GenerateTextOnly(runCtx, prompt, flags.emotion)
				if err != nil {
					return fmt.Errorf("text generation failed: %w", err)
				}
				if asJSON {
					return writeJSON(cmd, map[string]string{"text": text})
				}
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newStreamCommand(ctx *commandContext) *cobra.Command {
	var flags promptFlags

	cmd := &cobra.Command{
		Use:   "stream [prompt...]",
		Short: "Generate a meditation script and print it sentence by sentence",
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := flags.resolve(args)
			if err != nil {
				return err
			}
			return ctx.withRuntime(cmd, func(runCtx context.Context, rt *pipeline.Runtime) error {
				chunks, errs := rt.Orchestrator.GenerateTextStream(runCtx, prompt, flags.emotion)
				out := cmd.OutOrStdout()
				for chunk := range chunks {
					fmt.Fprint(out, chunk)
				}
				if err := <-errs; err != nil {
					return fmt.Errorf("stream generation failed: %w", err)
				}
				fmt.Fprintln(out)
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newImageCommand(ctx *commandContext) *cobra.Command {
	var text, session, output string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "image",
		Short: "Generate a meditation image for a text",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(text) == "" {
				return errors.New("--text is required")
			}
			root, err := outputRoot(ctx, output)
			if err != nil {
				return err
			}
			sessionID := sessionOrNew(session)
			return ctx.withRuntime(cmd, func(runCtx context.Context, rt *pipeline.Runtime) error {
				dir := pipeline.SessionPath(root, pipeline.KindImages, sessionID)
				path, err := rt.Orchestrator.GenerateImageOnly(runCtx, text, dir)
				if err != nil {
					return fmt.Errorf("image generation failed: %w", err)
				}
				if asJSON {
					return writeJSON(cmd, map[string]string{"image_path": path, "session_id": sessionID})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Image: %s\nSession: %s\n", path, sessionID)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&text, "text", "t", "", "Meditation text to illustrate")
	cmd.Flags().StringVarP(&session, "session", "s", "", "Session id (default: current timestamp)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output root (image lands in <root>/images/<session>)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newVideoCommand(ctx *commandContext) *cobra.Command {
	var text, image, session, output string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "video",
		Short: "Narrate a text over an image and background music",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(text) == "" {
				return errors.New("--text is required")
			}
			root, err := outputRoot(ctx, output)
			if err != nil {
				return err
			}
			sessionID := sessionOrNew(session)
			return ctx.withRuntime(cmd, func(runCtx context.Context, rt *pipeline.Runtime) error {
				outcome, err := rt.Orchestrator.GenerateVideoOnly(runCtx, pipeline.VideoRequest{
					Text:       text,
					ImagePath:  image,
					OutputPath: pipeline.SessionPath(root, pipeline.KindVideos, sessionID),
				})
				if err != nil {
					return fmt.Errorf("video generation failed: %w", err)
				}
				return printVideo(cmd, asJSON, videoResult{VideoPath: outcome.Path, Placeholder: outcome.Placeholder, SessionID: sessionID})
			})
		},
	}
	cmd.Flags().StringVarP(&text, "text", "t", "", "Meditation text to narrate")
	cmd.Flags().StringVarP(&image, "image", "i", "", "Existing image (file path or /images/... reference); generated when unusable")
	cmd.Flags().StringVarP(&session, "session", "s", "", "Session id (default: current timestamp)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output root (video lands in <root>/videos/<session>)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
