package results

import (
	"archive/zip"
	"bytes"
	"regexp"
	"strings"
	"testing"
	"unicode"
)

func TestExport_UnsupportedFormatIsRejected(t *testing.T) {
	_, _, _, err := Export("hello", ExportFormat("rtf"), "")
	if err == nil {
		t.Fatal("expected an error for an unsupported format")
	}
}

// every non-whitespace run of the source text survives into the txt export.
func TestExport_TXTRoundTripPreservesContent(t *testing.T) {
	text := "Hello there.\n>> Agent: how can I help you today?\nCustomer: I need a refund."
	data, contentType, filename, err := Export(text, FormatTXT, "")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if contentType != "text/plain; charset=utf-8" {
		t.Errorf("unexpected content type %q", contentType)
	}
	if filename == "" {
		t.Error("expected a suggested filename")
	}

	out := string(data)
	for _, run := range nonWhitespaceRuns(text) {
		if !strings.Contains(out, run) {
			t.Errorf("expected exported txt to contain %q", run)
		}
	}
	if !strings.Contains(out, "TRANSCRIPT") || !strings.Contains(out, "END OF TRANSCRIPT") {
		t.Error("expected header/footer markers in txt export")
	}
}

func TestExport_TitleDefaultsWhenFilenameEmpty(t *testing.T) {
	_, _, filename, err := Export("hello", FormatTXT, "")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !strings.HasPrefix(filename, "transcript_-_") {
		t.Errorf("expected default title to start with 'Transcript - ', got filename %q", filename)
	}
}

func TestTitleFor_StripsExtensionAndTitleCases(t *testing.T) {
	got := titleFor("customer_call-notes.wav")
	want := "Customer Call Notes"
	if got != want {
		t.Errorf("titleFor() = %q, want %q", got, want)
	}
}

func TestSplitParagraphs_DetectsSpeakerMarkers(t *testing.T) {
	text := ">> Agent: hello\nplain line\n[Speaker 2]: hi there"
	paragraphs := splitParagraphs(text)
	if len(paragraphs) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d", len(paragraphs))
	}
	if !paragraphs[0].Speaker || !paragraphs[2].Speaker {
		t.Error("expected speaker-marker lines flagged")
	}
	if paragraphs[1].Speaker {
		t.Error("expected the plain line not flagged as a speaker turn")
	}
}

func TestExport_DOCXProducesAValidZipWithDocumentXML(t *testing.T) {
	data, contentType, _, err := Export("hello world", FormatDOCX, "notes.wav")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if contentType != "application/vnd.openxmlformats-officedocument.wordprocessingml.document" {
		t.Errorf("unexpected content type %q", contentType)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("docx is not a valid zip: %v", err)
	}
	var foundDocument bool
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			foundDocument = true
			rc, err := f.Open()
			if err != nil {
				t.Fatalf("open document.xml: %v", err)
			}
			defer rc.Close()
			var buf bytes.Buffer
			buf.ReadFrom(rc)
			if !strings.Contains(buf.String(), "hello world") {
				t.Error("expected document.xml to contain the transcript body")
			}
		}
	}
	if !foundDocument {
		t.Error("expected word/document.xml in the docx package")
	}
}

func TestExport_PDFStartsWithHeaderAndHasValidXref(t *testing.T) {
	data, contentType, _, err := Export("a simple transcript body", FormatPDF, "")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if contentType != "application/pdf" {
		t.Errorf("unexpected content type %q", contentType)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-1.4")) {
		t.Error("expected a %PDF header")
	}
	if !bytes.Contains(data, []byte("trailer")) || !bytes.Contains(data, []byte("startxref")) {
		t.Error("expected trailer/startxref in the generated pdf")
	}
}

func TestWrapText_NeverExceedsMaxCharsPerWord(t *testing.T) {
	longText := strings.Repeat("word ", 40)
	lines := wrapText(longText, 20)
	for _, l := range lines {
		if len(l) > 20 && !strings.Contains(l, " ") {
			t.Errorf("unbreakable token exceeded width: %q", l)
		}
	}
}

var wsRun = regexp.MustCompile(`\S+`)

func nonWhitespaceRuns(s string) []string {
	return wsRun.FindAllString(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, s), -1)
}
