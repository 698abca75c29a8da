package ocr

import (
	"context"
	"errors"
	"strings"
	"testing"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/genproto/googleapis/rpc/status"

	"itledger/internal/extract"
)

type fakeAnnotator struct {
	resp   *visionpb.BatchAnnotateFilesResponse
	calls  int
	closed bool
}

func (f *fakeAnnotator) BatchAnnotateFiles(_ context.Context, req *visionpb.BatchAnnotateFilesRequest, _ ...gax.CallOption) (*visionpb.BatchAnnotateFilesResponse, error) {
	f.calls++
	if got := req.Requests[0].InputConfig.MimeType; got != "application/pdf" {
		return nil, errors.New("unexpected mime type " + got)
	}
	return f.resp, nil
}

func (f *fakeAnnotator) Close() error {
	f.closed = true
	return nil
}

func pageResponse(texts ...string) *visionpb.BatchAnnotateFilesResponse {
	file := &visionpb.AnnotateFileResponse{}
	for _, text := range texts {
		file.Responses = append(file.Responses, &visionpb.AnnotateImageResponse{
			FullTextAnnotation: &visionpb.TextAnnotation{
				Text: text,
				Pages: []*visionpb.Page{{
					Confidence: 0.9,
					Property: &visionpb.TextAnnotation_TextProperty{
						DetectedLanguages: []*visionpb.TextAnnotation_DetectedLanguage{{LanguageCode: "es"}},
					},
				}},
			},
		})
	}
	return &visionpb.BatchAnnotateFilesResponse{Responses: []*visionpb.AnnotateFileResponse{file}}
}

const fakePDF = "%PDF-1.4 scanned receipt"

func TestClientLoadedOnce(t *testing.T) {
	fake := &fakeAnnotator{resp: pageResponse("Folio: A-1", "TOTAL: 10.00")}
	loads := 0
	v := newVisionExtractor(func(context.Context) (annotator, error) {
		loads++
		return fake, nil
	})

	for i := 0; i < 3; i++ {
		text, err := v.ExtractText(context.Background(), strings.NewReader(fakePDF))
		if err != nil {
			t.Fatalf("ExtractText: %v", err)
		}
		if text != "Folio: A-1 TOTAL: 10.00" {
			t.Fatalf("text = %q", text)
		}
	}
	if loads != 1 || fake.calls != 3 {
		t.Fatalf("loads = %d calls = %d", loads, fake.calls)
	}
	if err := v.Close(); err != nil || !fake.closed {
		t.Fatalf("Close = %v, closed = %v", err, fake.closed)
	}
}

func TestLoadFailureNotRetried(t *testing.T) {
	loads := 0
	v := newVisionExtractor(func(context.Context) (annotator, error) {
		loads++
		return nil, WrapOCRError("NewImageAnnotatorClient", ErrMissingCredentials, "")
	})

	for i := 0; i < 2; i++ {
		_, err := v.ExtractText(context.Background(), strings.NewReader(fakePDF))
		if !errors.Is(err, ErrMissingCredentials) {
			t.Fatalf("err = %v, want ErrMissingCredentials", err)
		}
	}
	if loads != 1 {
		t.Fatalf("loads = %d, want 1", loads)
	}
}

func TestExtractWithMetadata(t *testing.T) {
	v := newVisionExtractor(func(context.Context) (annotator, error) {
		return &fakeAnnotator{resp: pageResponse("uno", "dos")}, nil
	})
	res, err := v.ExtractWithMetadata(context.Background(), strings.NewReader(fakePDF))
	if err != nil {
		t.Fatalf("ExtractWithMetadata: %v", err)
	}
	if res.PageCount != 2 || res.Confidence < 0.89 || len(res.LanguageCodes) != 1 || res.LanguageCodes[0] != "es" {
		t.Fatalf("result = %+v", res)
	}
}

func TestRejectsNonPDFBeforeConnecting(t *testing.T) {
	loads := 0
	v := newVisionExtractor(func(context.Context) (annotator, error) {
		loads++
		return &fakeAnnotator{}, nil
	})
	_, err := v.ExtractText(context.Background(), strings.NewReader("PNG"))
	if !errors.Is(err, ErrInvalidPDF) {
		t.Fatalf("err = %v", err)
	}
	if loads != 0 {
		t.Fatalf("client loaded for invalid input")
	}
}

func TestVisionErrors(t *testing.T) {
	tests := []struct {
		name string
		resp *visionpb.BatchAnnotateFilesResponse
		want error
	}{
		{"no responses", &visionpb.BatchAnnotateFilesResponse{}, ErrOCRFailed},
		{"file error", &visionpb.BatchAnnotateFilesResponse{Responses: []*visionpb.AnnotateFileResponse{{Error: &status.Status{Message: "quota"}}}}, ErrOCRFailed},
		{"blank text", pageResponse("   "), ErrEmptyDocument},
		{"too many pages", pageResponse("1", "2", "3", "4", "5", "6"), ErrTooManyPages},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newVisionExtractor(func(context.Context) (annotator, error) {
				return &fakeAnnotator{resp: tt.resp}, nil
			})
			_, err := v.ExtractText(context.Background(), strings.NewReader(fakePDF))
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestErrorsMatchLocalExtractor(t *testing.T) {
	pairs := []struct{ vision, local error }{
		{ErrFileTooLarge, extract.ErrFileTooLarge},
		{ErrInvalidPDF, extract.ErrInvalidPDF},
		{ErrEmptyDocument, extract.ErrEmptyDocument},
	}
	for _, p := range pairs {
		if p.vision.Error() != p.local.Error() {
			t.Errorf("vision %q, local %q", p.vision, p.local)
		}
		if strings.Contains(p.vision.Error(), "PDF") {
			t.Errorf("%q names the file format", p.vision)
		}
	}
}
