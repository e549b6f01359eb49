package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"cv-reviewer/internal/bootstrap"
	"cv-reviewer/internal/review"
	"cv-reviewer/internal/reviews"
	"cv-reviewer/internal/shared/config"
)

func main() {
	filePath := flag.String("file", "", "Path to CV file (pdf or docx)")
	outPath := flag.String("out", "", "Path to write the review JSON (optional)")
	flag.Parse()

	if strings.TrimSpace(*filePath) == "" {
		exitErr("file path is required")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		exitErr(err.Error())
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		exitErr(fmt.Sprintf("read file: %v", err))
	}

	ctx := context.Background()
	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		exitErr(err.Error())
	}

	out, err := app.ReviewService.ReviewFile(ctx, reviews.Upload{FileName: *filePath, Content: data})
	if err != nil {
		var rerr *reviews.Error
		if errors.As(err, &rerr) && rerr.Err != nil {
			exitErr(fmt.Sprintf("%s (%s): %v", rerr.Message, out.Trail, rerr.Err))
		}
		exitErr(fmt.Sprintf("%v (%s)", err, out.Trail))
	}

	payload, err := json.MarshalIndent(review.Envelope{Review: out.Review}, "", "  ")
	if err != nil {
		exitErr(fmt.Sprintf("encode review: %v", err))
	}
	if strings.TrimSpace(*outPath) != "" {
		if err := os.WriteFile(*outPath, payload, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}
	fmt.Println(string(payload))
}

func exitErr(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
