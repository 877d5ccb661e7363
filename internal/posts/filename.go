// Package posts converts DOCX drafts into Jekyll blog posts.
package posts

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// ErrBadFilename is returned for drafts not named YYYY-MM-DD[-time]-slug.docx.
var ErrBadFilename = errors.New("bad post filename")

// PostMetadata is what a draft's filename says about the post.
type PostMetadata struct {
	Date     string // YYYY-MM-DD
	DateTime string // YYYY-MM-DD HH:MM:SS
	Slug     string
	SlugRaw  string
	Title    string
}

var (
	slugStrip    = regexp.MustCompile(`[^a-z0-9\-\s]+`)
	slugCollapse = regexp.MustCompile(`[\s_-]+`)
	titleSplit   = regexp.MustCompile(`[-_]+`)
	investToken  = regexp.MustCompile(`^\d+[lL]$`)
	timeNoise    = regexp.MustCompile(`[\s:_-]`)
)

// Slugify lowercases value and keeps only letters, digits and single dashes.
func Slugify(value string) string {
	cleaned := slugStrip.ReplaceAllString(strings.ToLower(value), "")
	return strings.Trim(slugCollapse.ReplaceAllString(cleaned, "-"), "-")
}

// TitleCaseSlug turns a raw slug into a title. Tokens already in capitals
// are kept and invest numbers like 97l become 97L.
func TitleCaseSlug(slug string) string {
	var titled []string
	for _, part := range titleSplit.Split(slug, -1) {
		switch {
		case part == "":
			continue
		case investToken.MatchString(part):
			titled = append(titled, part[:len(part)-1]+"L")
		case isUpper(part):
			titled = append(titled, part)
		default:
			titled = append(titled, capitalize(part))
		}
	}
	return strings.Join(titled, " ")
}

// ParseFilename reads the date, optional time of day and slug from a draft
// name such as 2024-09-26-2pm-helene-update.docx.
func ParseFilename(name string) (PostMetadata, error) {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	tokens := strings.Split(stem, "-")
	if len(tokens) < 4 {
		return PostMetadata{}, fmt.Errorf("%w: %q must follow YYYY-MM-DD[-time]-slug.docx", ErrBadFilename, base)
	}
	yyyy, mm, dd := tokens[0], tokens[1], tokens[2]
	if !isDigits(yyyy) || !isDigits(mm) || !isDigits(dd) {
		return PostMetadata{}, fmt.Errorf("%w: %q must start with YYYY-MM-DD", ErrBadFilename, base)
	}
	rest := tokens[3:]

	hour, minute := 0, 0
	slugTokens := rest
	if h, m, ok := parseTimeToken(rest[0]); ok {
		hour, minute = h, m
		if len(rest) > 1 {
			slugTokens = rest[1:]
		}
	}

	slugRaw := strings.Join(slugTokens, "-")
	slug := Slugify(slugRaw)
	if slugRaw == "" {
		slug = Slugify("update")
	}
	titleSource := slugRaw
	if titleSource == "" {
		titleSource = slug
	}

	y, _ := strconv.Atoi(yyyy)
	mo, _ := strconv.Atoi(mm)
	d, _ := strconv.Atoi(dd)
	date := fmt.Sprintf("%04d-%02d-%02d", y, mo, d)
	return PostMetadata{
		Date:     date,
		DateTime: fmt.Sprintf("%s %02d:%02d:00", date, hour, minute),
		Slug:     slug,
		SlugRaw:  slugRaw,
		Title:    TitleCaseSlug(titleSource),
	}, nil
}

// parseTimeToken reads 2pm, 11am or 1130pm as a 24 hour clock time.
func parseTimeToken(token string) (int, int, bool) {
	normalized := strings.ToLower(timeNoise.ReplaceAllString(token, ""))
	if !strings.HasSuffix(normalized, "am") && !strings.HasSuffix(normalized, "pm") {
		return 0, 0, false
	}
	digits, period := normalized[:len(normalized)-2], normalized[len(normalized)-2:]
	if !isDigits(digits) || len(digits) > 4 {
		return 0, 0, false
	}

	var hour, minute int
	if len(digits) <= 2 {
		hour, _ = strconv.Atoi(digits)
	} else {
		hour, _ = strconv.Atoi(digits[:len(digits)-2])
		minute, _ = strconv.Atoi(digits[len(digits)-2:])
	}
	if hour < 1 || hour > 12 || minute > 59 {
		return 0, 0, false
	}
	hour %= 12
	if period == "pm" {
		hour += 12
	}
	return hour, minute, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

func capitalize(s string) string {
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
