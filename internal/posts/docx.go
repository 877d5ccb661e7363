package posts

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
)

const (
	wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	relNS  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

// Image is a picture embedded in a draft, renamed imageN.ext in order of
// first appearance.
type Image struct {
	Name string
	Data []byte
}

// Document is a draft converted to Markdown. Image references in the
// Markdown use the bare image names.
type Document struct {
	Markdown string
	Images   []Image
}

type relationship struct {
	ID         string `xml:"Id,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}

type relationships struct {
	Items []relationship `xml:"Relationship"`
}

// ReadDocx converts the .docx file at path.
func ReadDocx(path string) (*Document, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer zr.Close()
	return convertDocx(&zr.Reader)
}

// ParseDocx converts a .docx held in memory.
func ParseDocx(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open docx: %w", err)
	}
	return convertDocx(zr)
}

func convertDocx(zr *zip.Reader) (*Document, error) {
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	body, ok := files["word/document.xml"]
	if !ok {
		return nil, fmt.Errorf("not a Word document: word/document.xml missing")
	}

	var rels relationships
	if f, ok := files["word/_rels/document.xml.rels"]; ok {
		data, err := readZipFile(f)
		if err != nil {
			return nil, err
		}
		if err := xml.Unmarshal(data, &rels); err != nil {
			return nil, fmt.Errorf("failed to parse relationships: %w", err)
		}
	}

	numbering := listFormats{}
	if f, ok := files["word/numbering.xml"]; ok {
		data, err := readZipFile(f)
		if err != nil {
			return nil, err
		}
		if numbering, err = parseNumbering(data); err != nil {
			return nil, err
		}
	}

	c := &converter{
		files:     files,
		rels:      map[string]relationship{},
		numbering: numbering,
		imageName: map[string]string{},
	}
	for _, r := range rels.Items {
		c.rels[r.ID] = r
	}

	data, err := readZipFile(body)
	if err != nil {
		return nil, err
	}
	if err := c.convert(data); err != nil {
		return nil, err
	}
	return &Document{Markdown: c.markdown(), Images: c.images}, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	return data, nil
}

type segment struct {
	text   string
	bold   bool
	italic bool
	link   string
	image  string // markdown image, already rendered
}

type paragraph struct {
	style    string
	numID    string
	level    int
	segments []segment
}

func (p *paragraph) add(s segment) {
	p.segments = append(p.segments, s)
}

type converter struct {
	files     map[string]*zip.File
	rels      map[string]relationship
	numbering listFormats
	images    []Image
	imageName map[string]string

	blocks []*paragraph
}

func (c *converter) convert(data []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		stack  []*paragraph
		run    segment
		inPPr  bool
		inText bool
		link   string
		alt    string
	)
	current := func() *paragraph {
		if len(stack) == 0 {
			return nil
		}
		return stack[len(stack)-1]
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to parse document: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			p := current()
			if t.Name.Space != wordNS {
				switch t.Name.Local {
				case "docPr":
					alt = attr(t, "", "descr")
				case "blip", "imagedata":
					id := attr(t, relNS, "embed")
					if id == "" {
						id = attr(t, relNS, "id")
					}
					if p != nil {
						if img, err := c.image(id, alt); err != nil {
							return err
						} else if img != "" {
							p.add(segment{image: img})
						}
					}
					alt = ""
				}
				continue
			}
			switch t.Name.Local {
			case "p":
				stack = append(stack, &paragraph{})
			case "pPr":
				inPPr = true
			case "pStyle":
				if p != nil && inPPr {
					p.style = attr(t, wordNS, "val")
				}
			case "numId":
				if p != nil && inPPr {
					p.numID = attr(t, wordNS, "val")
				}
			case "ilvl":
				if p != nil && inPPr {
					p.level, _ = strconv.Atoi(attr(t, wordNS, "val"))
				}
			case "r":
				run = segment{link: link}
			case "b":
				if !inPPr {
					run.bold = toggleOn(t)
				}
			case "i":
				if !inPPr {
					run.italic = toggleOn(t)
				}
			case "t":
				inText = true
			case "tab":
				if p != nil && !inPPr {
					p.add(withText(run, " "))
				}
			case "br", "cr":
				if p != nil && attr(t, wordNS, "type") != "page" {
					p.add(withText(run, "\n"))
				}
			case "hyperlink":
				if r, ok := c.rels[attr(t, relNS, "id")]; ok && strings.EqualFold(r.TargetMode, "External") {
					link = r.Target
				}
			}

		case xml.EndElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "p":
				if p := current(); p != nil {
					stack = stack[:len(stack)-1]
					c.blocks = append(c.blocks, p)
				}
			case "pPr":
				inPPr = false
			case "t":
				inText = false
			case "hyperlink":
				link = ""
			}

		case xml.CharData:
			if p := current(); inText && p != nil {
				p.add(withText(run, string(t)))
			}
		}
	}
	return nil
}

// image saves the picture behind relationship id and returns its Markdown.
func (c *converter) image(id, alt string) (string, error) {
	rel, ok := c.rels[id]
	if !ok {
		return "", nil
	}
	if strings.EqualFold(rel.TargetMode, "External") {
		return fmt.Sprintf("![%s](%s)", escapeMarkdown(alt), rel.Target), nil
	}

	name, seen := c.imageName[id]
	if !seen {
		target := strings.TrimPrefix(rel.Target, "/")
		if !strings.HasPrefix(target, "word/") {
			target = path.Join("word", target)
		}
		f, ok := c.files[target]
		if !ok {
			return "", nil
		}
		data, err := readZipFile(f)
		if err != nil {
			return "", err
		}
		ext := strings.ToLower(strings.TrimPrefix(path.Ext(target), "."))
		if ext == "" {
			ext = "png"
		}
		name = fmt.Sprintf("image%d.%s", len(c.images)+1, ext)
		c.imageName[id] = name
		c.images = append(c.images, Image{Name: name, Data: data})
	}
	return fmt.Sprintf("![%s](%s)", escapeMarkdown(alt), name), nil
}

func withText(s segment, text string) segment {
	s.text = text
	return s
}

func attr(se xml.StartElement, space, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local && (space == "" || a.Name.Space == space) {
			return a.Value
		}
	}
	return ""
}

// toggleOn reads an OOXML on/off property such as <w:b/> or <w:b w:val="0"/>.
func toggleOn(se xml.StartElement) bool {
	switch attr(se, wordNS, "val") {
	case "0", "false", "off":
		return false
	}
	return true
}

// listFormats maps numId and level to whether the list is numbered.
type listFormats map[string]map[int]bool

func (l listFormats) ordered(numID string, level int) bool {
	return l[numID][level]
}

func parseNumbering(data []byte) (listFormats, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	abstract := map[string]map[int]bool{}
	nums := map[string]string{}

	var absID, numID string
	level := -1
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse numbering: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Space != wordNS {
			continue
		}
		switch se.Name.Local {
		case "abstractNum":
			absID, numID = attr(se, wordNS, "abstractNumId"), ""
			abstract[absID] = map[int]bool{}
		case "lvl":
			level, _ = strconv.Atoi(attr(se, wordNS, "ilvl"))
		case "numFmt":
			if absID != "" && level >= 0 {
				abstract[absID][level] = attr(se, wordNS, "val") != "bullet"
			}
		case "num":
			numID, absID = attr(se, wordNS, "numId"), ""
		case "abstractNumId":
			if numID != "" {
				nums[numID] = attr(se, wordNS, "val")
			}
		}
	}

	formats := listFormats{}
	for num, abs := range nums {
		formats[num] = abstract[abs]
	}
	return formats, nil
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	"#", `\#`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// markdown renders the collected paragraphs. Consecutive list items stay
// in one list.
func (c *converter) markdown() string {
	var b strings.Builder
	prevList := false
	for _, p := range c.blocks {
		text := strings.TrimSpace(renderSegments(p.segments))
		if text == "" {
			continue
		}
		isList := p.numID != "" && p.numID != "0"
		if b.Len() > 0 {
			if isList && prevList {
				b.WriteString("\n")
			} else {
				b.WriteString("\n\n")
			}
		}
		switch {
		case isList:
			b.WriteString(strings.Repeat("    ", p.level))
			if c.numbering.ordered(p.numID, p.level) {
				b.WriteString("1. ")
			} else {
				b.WriteString("- ")
			}
		case headingLevel(p.style) > 0:
			b.WriteString(strings.Repeat("#", headingLevel(p.style)) + " ")
			text = strings.ReplaceAll(text, "\n", " ")
		}
		b.WriteString(text)
		prevList = isList
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	return b.String()
}

func headingLevel(style string) int {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	if s == "title" {
		return 1
	}
	if n, err := strconv.Atoi(strings.TrimPrefix(s, "heading")); err == nil && strings.HasPrefix(s, "heading") && n >= 1 && n <= 6 {
		return n
	}
	return 0
}

// renderSegments merges runs with equal formatting and writes them as
// Markdown inline text.
func renderSegments(segments []segment) string {
	var merged []segment
	for _, s := range segments {
		if n := len(merged); n > 0 && s.image == "" && merged[n-1].image == "" &&
			merged[n-1].bold == s.bold && merged[n-1].italic == s.italic && merged[n-1].link == s.link {
			merged[n-1].text += s.text
			continue
		}
		merged = append(merged, s)
	}

	var b strings.Builder
	for i := 0; i < len(merged); i++ {
		s := merged[i]
		if s.image != "" {
			b.WriteString(s.image)
			continue
		}
		if s.link == "" {
			b.WriteString(emphasize(s))
			continue
		}
		// a link may span runs with different formatting
		var inner strings.Builder
		j := i
		for ; j < len(merged) && merged[j].image == "" && merged[j].link == s.link; j++ {
			inner.WriteString(emphasize(merged[j]))
		}
		label := strings.TrimSpace(inner.String())
		if label == "" {
			label = escapeMarkdown(s.link)
		}
		fmt.Fprintf(&b, "[%s](%s)", label, s.link)
		i = j - 1
	}
	return b.String()
}

// emphasize wraps a run in emphasis markers, keeping surrounding spaces
// outside so the markers stay valid.
func emphasize(s segment) string {
	text := escapeMarkdown(s.text)
	if !s.bold && !s.italic {
		return text
	}
	core := strings.TrimSpace(text)
	if core == "" {
		return text
	}
	start := strings.Index(text, core)
	lead, trail := text[:start], text[start+len(core):]
	marker := "*"
	switch {
	case s.bold && s.italic:
		marker = "***"
	case s.bold:
		marker = "**"
	}
	return lead + marker + core + marker + trail
}
