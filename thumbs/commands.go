package thumbs

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// The converters in this file shell out to external tools: ImageMagick for
// raster, paged and vector sources, ffmpeg for video, and LibreOffice for
// office documents. Each invocation is bounded by the caller's context.

// DefaultConverters returns one converter per family.
func DefaultConverters() map[Family]Converter {
	return map[Family]Converter{
		FamilyImage:     &imageConverter{},
		FamilyFirstPage: &firstPageConverter{},
		FamilyVector:    &vectorConverter{},
		FamilyVideo:     &videoConverter{},
		FamilyOffice:    &officeConverter{},
	}
}

// run executes an external tool, feeding stdin and capturing stdout.
// Stderr is folded into the returned error.
func run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return stdout.Bytes(), nil
}

// withTempFile writes source to a temporary file for tools that cannot
// read the format from a pipe, and cleans it up afterwards.
func withTempFile(source []byte, ext string, fn func(path string) ([]byte, error)) ([]byte, error) {
	f, err := os.CreateTemp("", "pubgate-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(source); err != nil {
		f.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	return fn(f.Name())
}

func geometry(maxDimension int) string {
	return fmt.Sprintf("%dx%d", maxDimension, maxDimension)
}

type imageConverter struct{}

func (c *imageConverter) Family() Family { return FamilyImage }

func (c *imageConverter) Convert(ctx context.Context, source []byte, maxDimension int) ([]byte, error) {
	out, err := run(ctx, source, "convert",
		"-", "-auto-orient", "-thumbnail", geometry(maxDimension), "jpeg:-")
	if err != nil {
		return nil, &ConversionError{Fam: c.Family(), Err: err}
	}
	return out, nil
}

type firstPageConverter struct{}

func (c *firstPageConverter) Family() Family { return FamilyFirstPage }

func (c *firstPageConverter) Convert(ctx context.Context, source []byte, maxDimension int) ([]byte, error) {
	// The [0] page selector needs a seekable input file.
	out, err := withTempFile(source, ".pdf", func(path string) ([]byte, error) {
		return run(ctx, nil, "convert",
			"-density", "150", path+"[0]",
			"-background", "white", "-flatten",
			"-thumbnail", geometry(maxDimension), "jpeg:-")
	})
	if err != nil {
		return nil, &ConversionError{Fam: c.Family(), Err: err}
	}
	return out, nil
}

type vectorConverter struct{}

func (c *vectorConverter) Family() Family { return FamilyVector }

func (c *vectorConverter) Convert(ctx context.Context, source []byte, maxDimension int) ([]byte, error) {
	out, err := run(ctx, source, "convert",
		"-density", "96", "-background", "white", "svg:-",
		"-flatten", "-thumbnail", geometry(maxDimension), "jpeg:-")
	if err != nil {
		return nil, &ConversionError{Fam: c.Family(), Err: err}
	}
	return out, nil
}

type videoConverter struct{}

func (c *videoConverter) Family() Family { return FamilyVideo }

func (c *videoConverter) Convert(ctx context.Context, source []byte, maxDimension int) ([]byte, error) {
	// Container indexes may sit at the end of the file, so ffmpeg needs a
	// real file rather than a pipe.
	out, err := withTempFile(source, ".video", func(path string) ([]byte, error) {
		scale := fmt.Sprintf(
			"scale='min(%d,iw)':'min(%d,ih)':force_original_aspect_ratio=decrease",
			maxDimension, maxDimension)
		return run(ctx, nil, "ffmpeg",
			"-ss", "1", "-i", path,
			"-frames:v", "1", "-vf", scale,
			"-f", "mjpeg", "pipe:1")
	})
	if err != nil {
		return nil, &ConversionError{Fam: c.Family(), Err: err}
	}
	return out, nil
}

type officeConverter struct{}

func (c *officeConverter) Family() Family { return FamilyOffice }

func (c *officeConverter) Convert(ctx context.Context, source []byte, maxDimension int) ([]byte, error) {
	// LibreOffice renders the document to PDF in a scratch directory; the
	// first page of that PDF is then rasterized like any paged source.
	out, err := withTempFile(source, ".doc", func(path string) ([]byte, error) {
		outDir, err := os.MkdirTemp("", "pubgate-office-")
		if err != nil {
			return nil, fmt.Errorf("create temp dir: %w", err)
		}
		defer os.RemoveAll(outDir)

		if _, err := run(ctx, nil, "soffice",
			"--headless", "--convert-to", "pdf", "--outdir", outDir, path); err != nil {
			return nil, err
		}

		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		pdf, err := os.ReadFile(filepath.Join(outDir, base+".pdf"))
		if err != nil {
			return nil, fmt.Errorf("read converted document: %w", err)
		}

		return withTempFile(pdf, ".pdf", func(pdfPath string) ([]byte, error) {
			return run(ctx, nil, "convert",
				"-density", "150", pdfPath+"[0]",
				"-background", "white", "-flatten",
				"-thumbnail", geometry(maxDimension), "jpeg:-")
		})
	})
	if err != nil {
		return nil, &ConversionError{Fam: c.Family(), Err: err}
	}
	return out, nil
}
