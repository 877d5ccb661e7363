package posts

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const docRels = `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId5" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink" Target="https://www.nhc.noaa.gov/" TargetMode="External"/>
  <Relationship Id="rId6" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink" Target="https://youtu.be/abcdefghijk" TargetMode="External"/>
  <Relationship Id="rId7" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/image9.PNG"/>
</Relationships>`

const docNumbering = `<?xml version="1.0" encoding="UTF-8"?>
<w:numbering xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:abstractNum w:abstractNumId="0"><w:lvl w:ilvl="0"><w:numFmt w:val="bullet"/></w:lvl><w:lvl w:ilvl="1"><w:numFmt w:val="decimal"/></w:lvl></w:abstractNum>
  <w:num w:numId="1"><w:abstractNumId w:val="0"/></w:num>
</w:numbering>`

const docBody = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"
  xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"
  xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
  xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">
<w:body>
  <w:p><w:pPr><w:pStyle w:val="Heading1"/><w:rPr><w:b/></w:rPr></w:pPr><w:r><w:t>Helene Update</w:t></w:r></w:p>
  <w:p><w:r><w:t xml:space="preserve">Helene is </w:t></w:r><w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">strengthening </w:t></w:r><w:r><w:rPr><w:i/></w:rPr><w:t>fast</w:t></w:r><w:r><w:t>. See </w:t></w:r><w:hyperlink r:id="rId5"><w:r><w:t>the NHC</w:t></w:r></w:hyperlink><w:r><w:t>.</w:t></w:r></w:p>
  <w:p><w:r><w:rPr><w:b w:val="0"/></w:rPr><w:t>Not bold_text *here*</w:t></w:r></w:p>
  <w:p/>
  <w:p><w:pPr><w:numPr><w:ilvl w:val="0"/><w:numId w:val="1"/></w:numPr></w:pPr><w:r><w:t>Winds 120 mph</w:t></w:r></w:p>
  <w:p><w:pPr><w:numPr><w:ilvl w:val="1"/><w:numId w:val="1"/></w:numPr></w:pPr><w:r><w:t>Gusts higher</w:t></w:r></w:p>
  <w:p><w:r><w:drawing><wp:inline><wp:docPr id="1" name="Picture 1" descr="Radar loop"/><a:graphic><a:graphicData><a:blip r:embed="rId7"/></a:graphicData></a:graphic></wp:inline></w:drawing></w:r></w:p>
  <w:p><w:r><w:t>Line one</w:t><w:br/><w:t>Line two</w:t></w:r></w:p>
  <w:p><w:hyperlink r:id="rId6"><w:r><w:t>Briefing video</w:t></w:r></w:hyperlink></w:p>
  <w:p><w:r><w:drawing><wp:inline><wp:docPr id="2" name="Picture 2"/><a:graphic><a:graphicData><a:blip r:embed="rId7"/></a:graphicData></a:graphic></wp:inline></w:drawing></w:r></w:p>
</w:body>
</w:document>`

var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

func buildDocx(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func sampleDocx(t *testing.T) []byte {
	return buildDocx(t, map[string][]byte{
		"word/document.xml":            []byte(docBody),
		"word/_rels/document.xml.rels": []byte(docRels),
		"word/numbering.xml":           []byte(docNumbering),
		"word/media/image9.PNG":        pngBytes,
	})
}

func TestParseDocx(t *testing.T) {
	doc, err := ParseDocx(sampleDocx(t))
	require.NoError(t, err)

	want := "# Helene Update\n\n" +
		"Helene is **strengthening** *fast*. See [the NHC](https://www.nhc.noaa.gov/).\n\n" +
		"Not bold\\_text \\*here\\*\n\n" +
		"- Winds 120 mph\n" +
		"    1. Gusts higher\n\n" +
		"![Radar loop](image1.png)\n\n" +
		"Line one\nLine two\n\n" +
		"[Briefing video](https://youtu.be/abcdefghijk)\n\n" +
		"![](image1.png)\n"
	assert.Equal(t, want, doc.Markdown)

	require.Len(t, doc.Images, 1)
	assert.Equal(t, "image1.png", doc.Images[0].Name)
	assert.Equal(t, pngBytes, doc.Images[0].Data)
}

func TestParseDocxRejectsOtherArchives(t *testing.T) {
	_, err := ParseDocx(buildDocx(t, map[string][]byte{"content.xml": []byte("<x/>")}))
	assert.Error(t, err)

	_, err = ParseDocx([]byte("not a zip"))
	assert.Error(t, err)
}

func TestHeadingLevel(t *testing.T) {
	assert.Equal(t, 1, headingLevel("Title"))
	assert.Equal(t, 2, headingLevel("Heading2"))
	assert.Equal(t, 3, headingLevel("heading 3"))
	assert.Equal(t, 0, headingLevel("Heading9"))
	assert.Equal(t, 0, headingLevel("Normal"))
}
