// Package ocr extracts text from scanned receipts with Google Cloud Vision.
//
// It is the alternative to the local PDF reader for receipts that are only an
// image inside a PDF. Credentials come from GOOGLE_CREDENTIALS (inline JSON) or
// GOOGLE_APPLICATION_CREDENTIALS (file path), falling back to application
// default credentials.
//
// Cloud Vision API Limitations:
//   - Maximum file size: 20MB for synchronous processing
//   - Maximum pages: 5 pages for synchronous processing
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"itledger/internal/logger"
)

const (
	// MaxFileSizeBytes is the maximum file size for synchronous processing (20MB)
	MaxFileSizeBytes = 20 * 1024 * 1024

	// MaxPagesSync is the maximum number of pages for synchronous processing
	MaxPagesSync = 5
)

// annotator is the part of the Vision client the extractor uses.
type annotator interface {
	BatchAnnotateFiles(ctx context.Context, req *visionpb.BatchAnnotateFilesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateFilesResponse, error)
	Close() error
}

type loader func(ctx context.Context) (annotator, error)

// Credentials selects how the Vision client authenticates.
type Credentials struct {
	JSON string // inline service account JSON
	File string // path to a service account JSON file
}

// Result is the text of a document plus what Vision reported about it.
type Result struct {
	Text               string
	PageCount          int
	Confidence         float32
	LanguageCodes      []string
	ProcessingDuration time.Duration
}

// VisionExtractor implements extract.TextExtractor on top of Cloud Vision.
// The client is created on first use and shared by every later call; if
// creating it fails, that failure is returned from then on without retrying.
type VisionExtractor struct {
	load loader

	once   sync.Once
	client annotator
	err    error

	log zerolog.Logger
}

// NewVisionExtractor returns an extractor that connects lazily with creds.
func NewVisionExtractor(creds Credentials) *VisionExtractor {
	return newVisionExtractor(func(ctx context.Context) (annotator, error) {
		const op = "NewImageAnnotatorClient"

		var opts []option.ClientOption
		switch {
		case creds.JSON != "":
			opts = append(opts, option.WithCredentialsJSON([]byte(creds.JSON)))
		case creds.File != "":
			opts = append(opts, option.WithCredentialsFile(creds.File))
		}

		client, err := vision.NewImageAnnotatorClient(ctx, opts...)
		if err != nil {
			if len(opts) == 0 {
				return nil, WrapOCRError(op, ErrMissingCredentials, err.Error())
			}
			return nil, WrapOCRError(op, err, "failed to create Vision client")
		}
		return client, nil
	})
}

func newVisionExtractor(load loader) *VisionExtractor {
	return &VisionExtractor{load: load, log: logger.WithComponent("ocr")}
}

func (v *VisionExtractor) connect(ctx context.Context) (annotator, error) {
	v.once.Do(func() {
		v.log.Debug().Msg("Creating Vision client")
		v.client, v.err = v.load(ctx)
		if v.err != nil {
			v.log.Warn().Err(v.err).Msg("Vision client unavailable")
		}
	})
	return v.client, v.err
}

// ExtractText implements extract.TextExtractor.
func (v *VisionExtractor) ExtractText(ctx context.Context, r io.Reader) (string, error) {
	result, err := v.ExtractWithMetadata(ctx, r)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// ExtractWithMetadata runs document text detection over every page.
func (v *VisionExtractor) ExtractWithMetadata(ctx context.Context, r io.Reader) (*Result, error) {
	const op = "ExtractWithMetadata"
	startTime := time.Now()

	pdfBytes, err := io.ReadAll(io.LimitReader(r, MaxFileSizeBytes+1))
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to read PDF data")
	}
	if len(pdfBytes) > MaxFileSizeBytes {
		return nil, WrapOCRError(op, ErrFileTooLarge, fmt.Sprintf("file size: > %d bytes", MaxFileSizeBytes))
	}
	if !bytes.HasPrefix(pdfBytes, []byte("%PDF")) {
		return nil, WrapOCRError(op, ErrInvalidPDF, "missing PDF header")
	}

	client, err := v.connect(ctx)
	if err != nil {
		return nil, err
	}

	req := &visionpb.BatchAnnotateFilesRequest{
		Requests: []*visionpb.AnnotateFileRequest{
			{
				InputConfig: &visionpb.InputConfig{
					Content:  pdfBytes,
					MimeType: "application/pdf",
				},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := client.BatchAnnotateFiles(ctx, req)
	if err != nil {
		return nil, WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if len(resp.Responses) == 0 {
		return nil, WrapOCRError(op, ErrOCRFailed, "no response from Vision API")
	}

	fileResp := resp.Responses[0]
	if fileResp.Error != nil {
		return nil, WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API error: %s", fileResp.Error.Message))
	}

	result, err := collectText(fileResp)
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to process Vision API response")
	}
	result.ProcessingDuration = time.Since(startTime)

	v.log.Info().
		Int("page_count", result.PageCount).
		Float32("confidence", result.Confidence).
		Dur("duration", result.ProcessingDuration).
		Msg("OCR completed")
	return result, nil
}

// collectText joins the page texts and averages the reported confidence.
func collectText(fileResp *visionpb.AnnotateFileResponse) (*Result, error) {
	if len(fileResp.Responses) == 0 {
		return nil, ErrEmptyDocument
	}
	pageCount := len(fileResp.Responses)
	if pageCount > MaxPagesSync {
		return nil, fmt.Errorf("%w: document has %d pages", ErrTooManyPages, pageCount)
	}

	var (
		pages           []string
		confidenceSum   float32
		confidenceCount int
		languages       []string
		seen            = map[string]bool{}
	)

	for pageIdx, page := range fileResp.Responses {
		if page.Error != nil {
			return nil, fmt.Errorf("error processing page %d: %s", pageIdx+1, page.Error.Message)
		}
		annotation := page.FullTextAnnotation
		if annotation == nil {
			continue
		}
		pages = append(pages, annotation.Text)

		for _, p := range annotation.Pages {
			if p.Confidence > 0 {
				confidenceSum += p.Confidence
				confidenceCount++
			}
			if p.Property == nil {
				continue
			}
			for _, lang := range p.Property.DetectedLanguages {
				if lang.LanguageCode != "" && !seen[lang.LanguageCode] {
					seen[lang.LanguageCode] = true
					languages = append(languages, lang.LanguageCode)
				}
			}
		}
	}

	text := strings.Join(pages, " ")
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}

	var avg float32
	if confidenceCount > 0 {
		avg = confidenceSum / float32(confidenceCount)
	}
	return &Result{
		Text:          text,
		PageCount:     pageCount,
		Confidence:    avg,
		LanguageCodes: languages,
	}, nil
}

// Close closes the Vision client if one was created.
func (v *VisionExtractor) Close() error {
	if v.client != nil {
		return v.client.Close()
	}
	return nil
}
