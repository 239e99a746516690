package client

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF writes a minimal uncompressed PDF with one text line per page.
func buildPDF(t *testing.T, pages []string) []byte {
	t.Helper()

	// Object numbers: 1 catalog, 2 pages, 3 font, then a page and a content
	// stream per input page.
	var objects []string
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	)
	for i, text := range pages {
		content := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R /Resources << /Font << /F1 3 0 R >> >> >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestPDFExtractor_SinglePage(t *testing.T) {
	data := buildPDF(t, []string{"Mitochondria is the powerhouse"})

	text, pages, err := PDFExtractor{}.Extract(data, MaxPages)
	require.NoError(t, err)
	assert.Equal(t, 1, pages)
	assert.Contains(t, text, "Mitochondria is the powerhouse")
	assert.True(t, strings.HasSuffix(text, "\n\n"))
}

func TestPDFExtractor_StopsAtMaxPages(t *testing.T) {
	data := buildPDF(t, []string{"alpha", "beta", "gamma", "delta"})

	text, pages, err := PDFExtractor{}.Extract(data, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, pages)
	assert.Contains(t, text, "alpha")
	assert.Contains(t, text, "gamma")
	assert.NotContains(t, text, "delta")
	assert.Less(t, strings.Index(text, "alpha"), strings.Index(text, "beta"))
}

func TestPDFExtractor_InvalidData(t *testing.T) {
	_, _, err := PDFExtractor{}.Extract([]byte("definitely not a pdf"), MaxPages)
	assert.Error(t, err)
}
