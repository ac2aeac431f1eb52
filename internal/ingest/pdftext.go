package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pageData is one extracted PDF page: its text plus the media box size in
// PostScript points.
type pageData struct {
	Number    int
	WidthPts  float64
	HeightPts float64
	Text      string
}

// pdfPages extracts text and dimensions per page. A PDF that cannot be
// opened at all is unreadable; a single page that fails to render degrades
// to empty text instead of sinking the whole document.
func pdfPages(data []byte) ([]pageData, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: pdf open: %v", errUnreadable, err)
	}

	total := reader.NumPage()
	pages := make([]pageData, 0, total)
	for number := 1; number <= total; number++ {
		entry := pageData{Number: number}
		page := reader.Page(number)
		if page.V.IsNull() {
			pages = append(pages, entry)
			continue
		}
		entry.WidthPts, entry.HeightPts = mediaBoxSize(page)
		if text, err := page.GetPlainText(nil); err == nil {
			entry.Text = strings.TrimSpace(text)
		}
		pages = append(pages, entry)
	}
	return pages, nil
}

// mediaBoxSize reads the page's MediaBox, walking up the page tree for
// inherited values. Unknown boxes report zero dimensions.
func mediaBoxSize(page pdf.Page) (width, height float64) {
	// The pinned pdf version predates the exported Page.MediaBox helper, so
	// the inherited-attribute walk is spelled out here.
	var box pdf.Value
	for v := page.V; !v.IsNull(); v = v.Key("Parent") {
		if r := v.Key("MediaBox"); !r.IsNull() {
			box = r
			break
		}
	}
	if box.Kind() != pdf.Array || box.Len() != 4 {
		return 0, 0
	}
	width = box.Index(2).Float64() - box.Index(0).Float64()
	height = box.Index(3).Float64() - box.Index(1).Float64()
	if width < 0 {
		width = -width
	}
	if height < 0 {
		height = -height
	}
	return width, height
}

// joinPageText concatenates the non-empty page texts, the fallback payload
// for PDFs too large to send to the provider as raw bytes.
func joinPageText(pages []pageData) string {
	var b strings.Builder
	for _, page := range pages {
		if page.Text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(page.Text)
	}
	return b.String()
}
