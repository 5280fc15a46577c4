package results

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"transcriptai/server/seedwork/domain"
)

// ExportFormat is one of the three document formats the export layer (C9)
// can produce.
type ExportFormat string

const (
	FormatTXT  ExportFormat = "txt"
	FormatDOCX ExportFormat = "docx"
	FormatPDF  ExportFormat = "pdf"
)

// speakerTurnPattern matches a line prefixed with a speaker marker: either
// a ">>" transcript convention or a "[Speaker N]:" label.
var speakerTurnPattern = regexp.MustCompile(`^(>>|\[Speaker \d+\]:)`)

var titleCaser = cases.Title(language.English)

// documentModel is the shared, format-independent rendering of a
// transcript: a title, a generation date, and its body split into
// paragraphs with speaker turns flagged.
type documentModel struct {
	Title      string
	Date       string
	Paragraphs []paragraph
}

type paragraph struct {
	Text    string
	Speaker bool
}

// Export renders text into the requested format and returns its bytes,
// MIME content type, and a suggested download filename derived from the
// generated title.
func Export(text string, format ExportFormat, filename string) ([]byte, string, string, error) {
	switch format {
	case FormatTXT, FormatDOCX, FormatPDF:
	default:
		return nil, "", "", domain.NewDomainError(domain.ErrValidation, fmt.Sprintf("unsupported export format %q", format), nil)
	}

	doc := renderDocument(text, filename)
	suggested := suggestedFilename(doc.Title, string(format))

	switch format {
	case FormatTXT:
		return exportTXT(doc), "text/plain; charset=utf-8", suggested, nil
	case FormatDOCX:
		data, err := buildDocx(doc)
		if err != nil {
			return nil, "", "", fmt.Errorf("build docx: %w", err)
		}
		return data, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", suggested, nil
	default: // FormatPDF
		return buildPDF(doc), "application/pdf", suggested, nil
	}
}

// renderDocument builds the shared document model: a title derived from
// filename (or a dated default), today's long date, and the body split
// into speaker-turn-tagged paragraphs.
func renderDocument(text, filename string) documentModel {
	return documentModel{
		Title:      titleFor(filename),
		Date:       time.Now().Format("January 2, 2006"),
		Paragraphs: splitParagraphs(text),
	}
}

func titleFor(filename string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	base = strings.TrimSpace(base)
	if base == "" {
		return fmt.Sprintf("Transcript - %s", time.Now().Format("January 2, 2006"))
	}
	return titleCaser.String(base)
}

func suggestedFilename(title, ext string) string {
	slug := strings.NewReplacer(" ", "_", "/", "_", "\\", "_").Replace(strings.ToLower(title))
	return fmt.Sprintf("%s.%s", slug, ext)
}

func splitParagraphs(text string) []paragraph {
	lines := strings.Split(text, "\n")
	out := make([]paragraph, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		out = append(out, paragraph{Text: trimmed, Speaker: speakerTurnPattern.MatchString(trimmed)})
	}
	return out
}

// --- txt ---

const txtLineWidth = 72

func centeredLine(s string) string {
	r := []rune(s)
	if len(r) >= txtLineWidth {
		return s
	}
	pad := (txtLineWidth - len(r)) / 2
	return strings.Repeat(" ", pad) + s
}

func exportTXT(doc documentModel) []byte {
	var b strings.Builder
	b.WriteString(centeredLine("TRANSCRIPT") + "\n")
	b.WriteString(centeredLine(doc.Title) + "\n")
	b.WriteString(centeredLine(doc.Date) + "\n")
	b.WriteString(strings.Repeat("-", txtLineWidth) + "\n\n")
	for _, p := range doc.Paragraphs {
		b.WriteString(p.Text + "\n\n")
	}
	b.WriteString(strings.Repeat("-", txtLineWidth) + "\n")
	b.WriteString(centeredLine("END OF TRANSCRIPT") + "\n")
	return []byte(b.String())
}

// --- docx ---
//
// No OOXML library exists anywhere in the retrieved corpus, so a docx is
// produced by hand: a zip package containing the handful of XML parts
// Word requires ([Content_Types].xml, the package relationships, and the
// single document part). This is the same "docx is just a zip of XML"
// approach any from-scratch OOXML writer uses; archive/zip and
// encoding/xml are stdlib specifically because no generator library was
// available to ground this on.

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const docxRootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const docxDocumentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"/>`

func docxEscape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func docxParagraph(text string, centered, bold bool) string {
	pPr := ""
	if centered {
		pPr = `<w:pPr><w:jc w:val="center"/></w:pPr>`
	}
	rPr := ""
	if bold {
		rPr = `<w:rPr><w:b/></w:rPr>`
	}
	return fmt.Sprintf(`<w:p>%s<w:r>%s<w:t xml:space="preserve">%s</w:t></w:r></w:p>`, pPr, rPr, docxEscape(text))
}

func buildDocx(doc documentModel) ([]byte, error) {
	var body strings.Builder
	body.WriteString(docxParagraph("TRANSCRIPT", true, true))
	body.WriteString(docxParagraph(doc.Title, true, false))
	body.WriteString(docxParagraph(doc.Date, true, false))
	body.WriteString(docxParagraph(strings.Repeat("_", 50), false, false))
	for _, p := range doc.Paragraphs {
		body.WriteString(docxParagraph(p.Text, false, p.Speaker))
	}
	body.WriteString(docxParagraph(strings.Repeat("_", 50), false, false))
	body.WriteString(docxParagraph("END OF TRANSCRIPT", true, true))

	documentXML := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>%s<w:sectPr/></w:body></w:document>`, body.String())

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct{ name, content string }{
		{"[Content_Types].xml", docxContentTypes},
		{"_rels/.rels", docxRootRels},
		{"word/document.xml", documentXML},
		{"word/_rels/document.xml.rels", docxDocumentRels},
	}
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(part.content)); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// --- pdf ---
//
// Same reasoning as docx: nothing in the corpus generates PDFs, so this
// writes raw PDF object syntax directly (stdlib bytes/fmt only): a
// Catalog, a Pages tree, two Type1 base-14 fonts (Helvetica and its bold
// variant, so speaker turns and headers can actually render bold), and one
// Page + content-stream object pair per page of wrapped text.

const (
	pdfPageWidth    = 612.0
	pdfPageHeight   = 792.0
	pdfMarginLeft   = 54.0
	pdfMarginTop    = 54.0
	pdfMarginBottom = 54.0
	pdfFontSize     = 11.0
	pdfLeading      = 15.0
	pdfWrapChars    = 92
)

type pdfLine struct {
	text     string
	centered bool
	bold     bool
}

func buildPDFLines(doc documentModel) []pdfLine {
	var lines []pdfLine
	lines = append(lines, pdfLine{"TRANSCRIPT", true, true})
	lines = append(lines, pdfLine{doc.Title, true, false})
	lines = append(lines, pdfLine{doc.Date, true, false})
	lines = append(lines, pdfLine{strings.Repeat("_", 70), false, false})
	lines = append(lines, pdfLine{"", false, false})
	for _, p := range doc.Paragraphs {
		for _, wrapped := range wrapText(p.Text, pdfWrapChars) {
			lines = append(lines, pdfLine{wrapped, false, p.Speaker})
		}
		lines = append(lines, pdfLine{"", false, false})
	}
	lines = append(lines, pdfLine{strings.Repeat("_", 70), false, false})
	lines = append(lines, pdfLine{"END OF TRANSCRIPT", true, true})
	return lines
}

func wrapText(s string, maxChars int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}
	lines := make([]string, 0, 1)
	cur := words[0]
	for _, w := range words[1:] {
		if len(cur)+1+len(w) > maxChars {
			lines = append(lines, cur)
			cur = w
			continue
		}
		cur = cur + " " + w
	}
	return append(lines, cur)
}

func paginateLines(lines []pdfLine, perPage int) [][]pdfLine {
	if perPage < 1 {
		perPage = 1
	}
	var pages [][]pdfLine
	for len(lines) > 0 {
		n := perPage
		if n > len(lines) {
			n = len(lines)
		}
		pages = append(pages, lines[:n])
		lines = lines[n:]
	}
	if len(pages) == 0 {
		pages = [][]pdfLine{{}}
	}
	return pages
}

// estimateWidth approximates Helvetica's rendered width; there is no font
// metrics table available without an embedded font program, so this uses
// a flat average-advance-width heuristic, good enough to center a line.
func estimateWidth(s string, fontSize float64) float64 {
	return float64(len([]rune(s))) * fontSize * 0.5
}

func pdfEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}

func pdfContentStream(lines []pdfLine) string {
	var b strings.Builder
	b.WriteString("BT\n")
	y := pdfPageHeight - pdfMarginTop
	for _, line := range lines {
		font := "/F1"
		if line.bold {
			font = "/F2"
		}
		x := pdfMarginLeft
		if line.centered {
			w := estimateWidth(line.text, pdfFontSize)
			x = (pdfPageWidth - w) / 2
			if x < pdfMarginLeft {
				x = pdfMarginLeft
			}
		}
		fmt.Fprintf(&b, "%s %.1f Tf\n1 0 0 1 %.2f %.2f Tm\n(%s) Tj\n", font, pdfFontSize, x, y, pdfEscape(line.text))
		y -= pdfLeading
	}
	b.WriteString("ET")
	return b.String()
}

func buildPDF(doc documentModel) []byte {
	lines := buildPDFLines(doc)
	perPage := int((pdfPageHeight - pdfMarginTop - pdfMarginBottom) / pdfLeading)
	pages := paginateLines(lines, perPage)

	// Object numbering: 1 Catalog, 2 Pages, 3 Helvetica, 4 Helvetica-Bold,
	// then a (Page, Contents) object pair per page starting at 5.
	total := 4 + len(pages)*2
	objs := make([]string, total+1) // 1-indexed
	objs[1] = "<< /Type /Catalog /Pages 2 0 R >>"
	objs[3] = "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>"
	objs[4] = "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica-Bold >>"

	kids := make([]string, len(pages))
	next := 5
	for i, pageLines := range pages {
		pageObj, contentObj := next, next+1
		next += 2
		kids[i] = fmt.Sprintf("%d 0 R", pageObj)

		stream := pdfContentStream(pageLines)
		objs[pageObj] = fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Resources << /Font << /F1 3 0 R /F2 4 0 R >> >> /Contents %d 0 R >>",
			int(pdfPageWidth), int(pdfPageHeight), contentObj)
		objs[contentObj] = fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream)
	}
	objs[2] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, total+1)
	for n := 1; n <= total; n++ {
		offsets[n] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, objs[n])
	}
	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", total+1)
	for n := 1; n <= total; n++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[n])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF", total+1, xrefStart)
	return buf.Bytes()
}
