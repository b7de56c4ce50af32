package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"caelus/backend/internal/ai"
	"caelus/backend/internal/config"
	"caelus/backend/internal/profile"
	"caelus/backend/internal/synth"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		logrus.Fatal(err)
	}
}

type options struct {
	mode        string
	answersPath string
	category    string
	style       string
	description string
	generate    bool
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("compose", flag.ContinueOnError)
	fs.StringVar(&opts.mode, "mode", "classify", "classify, image or sketch")
	fs.StringVar(&opts.answersPath, "answers", "", "JSON file mapping question index to the chosen option (classify)")
	fs.StringVar(&opts.category, "category", "garment", "garment, fabric or sketch (image)")
	fs.StringVar(&opts.style, "style", "", "style preset key, or sketch style for -mode sketch")
	fs.StringVar(&opts.description, "description", "", "free-text description (image, sketch)")
	fs.BoolVar(&opts.generate, "generate", false, "send the composed prompt to OpenAI and print the image URL")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

func run(ctx context.Context, args []string, out io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	switch opts.mode {
	case "classify":
		return classify(opts, out)
	case "image":
		if strings.TrimSpace(opts.description) == "" {
			return errors.New("-description is required")
		}
		category, ok := synth.ParseCategory(opts.category)
		if !ok {
			return fmt.Errorf("unknown category %q", opts.category)
		}
		comp := synth.DefaultStyles().Compose(synth.Request{Category: category, Style: opts.style, Description: opts.description})
		if comp.StyleFallback {
			logrus.WithField("style", opts.style).Warn("unknown style key, using default")
		}
		return emit(ctx, opts, out, comp.Prompt)
	case "sketch":
		if strings.TrimSpace(opts.description) == "" {
			return errors.New("-description is required")
		}
		comp := synth.ComposeSketch(opts.description, opts.style)
		if comp.StyleFallback {
			logrus.WithField("style", opts.style).Warn("unknown sketch style, using detailed")
		}
		return emit(ctx, opts, out, comp.Prompt)
	default:
		return fmt.Errorf("unknown mode %q", opts.mode)
	}
}

func classify(opts options, out io.Writer) error {
	if opts.answersPath == "" {
		return errors.New("-answers is required")
	}
	answers, err := readAnswers(opts.answersPath)
	if err != nil {
		return err
	}
	assessment := profile.Assess(profile.DefaultBank(), answers)
	for _, w := range assessment.Warnings {
		logrus.WithFields(logrus.Fields{
			"question": w.QuestionIndex,
			"answer":   w.Answer,
			"reason":   w.Reason,
		}).Warn("answer skipped")
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(assessment)
}

func readAnswers(path string) (profile.AnswerSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read answers: %w", err)
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse answers: %w", err)
	}
	answers := make(profile.AnswerSet, len(raw))
	for key, value := range raw {
		idx, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("answer key %q is not a question index", key)
		}
		answers[idx] = value
	}
	return answers, nil
}

func emit(ctx context.Context, opts options, out io.Writer, prompt string) error {
	if _, err := fmt.Fprintln(out, prompt); err != nil {
		return err
	}
	if !opts.generate {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.AIEnabled() {
		return ai.ErrDisabled
	}
	client, err := ai.NewClient(ai.Config{
		APIKey:     cfg.OpenAIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		ImageModel: cfg.ImageModel,
		Timeout:    cfg.OpenAITimeout,
	})
	if err != nil {
		return fmt.Errorf("ai client: %w", err)
	}
	url, err := client.GenerateImage(ctx, prompt)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "\nimage: %s\n", url)
	return err
}
