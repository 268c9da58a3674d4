package stages

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"golang.org/x/sync/errgroup"

	"github.com/nodewee/picaxe/pkg/constants"
	"github.com/nodewee/picaxe/pkg/interfaces"
	"github.com/nodewee/picaxe/pkg/logger"
	"github.com/nodewee/picaxe/pkg/types"
	"github.com/nodewee/picaxe/pkg/utils"
)

// NativeRasterizer renders every page of every input PDF to PNG with MuPDF
type NativeRasterizer struct {
	dpi     float64
	workers int
	logger  *logger.Logger
}

// Ensure NativeRasterizer implements Stage interface
var _ interfaces.Stage = (*NativeRasterizer)(nil)

// NewNativeRasterizer creates the in-process rasterize stage
func NewNativeRasterizer(dpi, workers int, log *logger.Logger) *NativeRasterizer {
	if workers < 1 {
		workers = 1
	}
	return &NativeRasterizer{
		dpi:     float64(dpi),
		workers: workers,
		logger:  log,
	}
}

// Name returns the stage name
func (r *NativeRasterizer) Name() types.StageName {
	return types.StageRasterize
}

// Run renders the PDFs of sio.InputDir into sio.OutputDir, up to r.workers
// documents at a time. The first failing document cancels the others.
func (r *NativeRasterizer) Run(ctx context.Context, sio interfaces.StageIO) error {
	pdfs, err := utils.ListPDFs(sio.InputDir)
	if err != nil {
		return fmt.Errorf("failed to list input PDFs: %w", err)
	}
	if err := utils.EnsureDir(sio.OutputDir); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, name := range pdfs {
		path := filepath.Join(sio.InputDir, name)
		g.Go(func() error {
			return r.renderDocument(gctx, path, sio.OutputDir)
		})
	}

	return g.Wait()
}

// renderDocument writes <stem>_page_<n>.png for every page of pdfPath
func (r *NativeRasterizer) renderDocument(ctx context.Context, pdfPath, outputDir string) error {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", filepath.Base(pdfPath), err)
	}
	defer doc.Close()

	stem := strings.TrimSuffix(filepath.Base(pdfPath), constants.PDFExtension)
	pageCount := doc.NumPage()
	r.logger.Debug("Rasterizing %s (%d pages)", filepath.Base(pdfPath), pageCount)

	for n := 0; n < pageCount; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		img, err := doc.ImageDPI(n, r.dpi)
		if err != nil {
			return fmt.Errorf("failed to render page %d of %s: %w", n+1, filepath.Base(pdfPath), err)
		}

		outPath := filepath.Join(outputDir, fmt.Sprintf(constants.PageImagePattern, stem, n+1))
		if err := writePNG(outPath, img); err != nil {
			return err
		}
	}

	return nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.DefaultFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}
