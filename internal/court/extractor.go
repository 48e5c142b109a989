package court

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/courtlens/casestatus-api/internal/models"
)

// Token is the per-request hidden form token the status page embeds. Its
// name is randomized with a fixed prefix, so both name and value must be
// replayed verbatim.
type Token struct {
	Name  string
	Value string
}

const tokenPrefix = "tok_"

// ExtractToken finds the first hidden input whose name carries the token
// prefix. Both name and value must be non-empty.
func ExtractToken(doc *goquery.Document) (Token, error) {
	var tok Token
	doc.Find(`input[type="hidden"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name, _ := s.Attr("name")
		if !strings.HasPrefix(name, tokenPrefix) {
			return true
		}
		value, _ := s.Attr("value")
		if value == "" {
			return true
		}
		tok = Token{Name: name, Value: value}
		return false
	})
	if tok.Name == "" {
		return Token{}, Errf(KindTokenNotFound, "no hidden input with %q name prefix in page", tokenPrefix)
	}
	return tok, nil
}

// ExtractCaptchaSession returns the captcha session id (scid). It prefers
// the dedicated hidden input; when the input is absent or empty it falls
// back to the id query parameter of the captcha image URL.
func ExtractCaptchaSession(doc *goquery.Document) (string, error) {
	if scid, ok := doc.Find(`input[name="scid"]`).First().Attr("value"); ok && scid != "" {
		return scid, nil
	}
	var scid string
	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, ok := s.Attr("src")
		if !ok || !strings.Contains(src, "_siwp_captcha") {
			return true
		}
		u, err := url.Parse(src)
		if err != nil {
			return true
		}
		if id := u.Query().Get("id"); id != "" {
			scid = id
			return false
		}
		return true
	})
	if scid == "" {
		return "", Errf(KindSessionNotFound, "no captcha session id in page")
	}
	return scid, nil
}

// registeredOnRe splits a combined "case number / registration date" cell.
var registeredOnRe = regexp.MustCompile(`Registered on (\d{2}-\d{2}-\d{4})`)

// ExtractCaseRecords parses the result table HTML the AJAX endpoint returns
// inside its data field. Rows with fewer than 7 cells are layout chrome and
// are skipped. An empty table is a valid empty result, not an error.
func ExtractCaseRecords(doc *goquery.Document, baseOrigin string) []models.CaseRecord {
	var records []models.CaseRecord
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 7 {
			return
		}
		cellText := func(i int) string {
			return strings.TrimSpace(cells.Eq(i).Text())
		}

		rec := models.CaseRecord{
			SerialNumber: cellText(0),
			DiaryNumber:  cellText(1),
			Petitioner:   cellText(3),
			Respondent:   cellText(4),
			Status:       cellText(5),
		}

		caseCell := cellText(2)
		if m := registeredOnRe.FindStringSubmatch(caseCell); m != nil {
			rec.RegistrationDate = m[1]
			rec.CaseNumber = strings.TrimSpace(strings.TrimSuffix(caseCell, m[0]))
		} else {
			rec.CaseNumber = caseCell
		}

		if href, ok := cells.Eq(6).Find("a").First().Attr("href"); ok {
			rec.DetailLink = absolutize(href, baseOrigin)
		}

		records = append(records, rec)
	})
	if records == nil {
		records = []models.CaseRecord{}
	}
	return records
}

// absolutize resolves a possibly relative link against the site origin.
func absolutize(href, baseOrigin string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if u.IsAbs() {
		return href
	}
	base, err := url.Parse(baseOrigin)
	if err != nil {
		return href
	}
	return base.ResolveReference(u).String()
}
