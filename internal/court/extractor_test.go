package court

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse test HTML: %v", err)
	}
	return doc
}

func TestExtractToken(t *testing.T) {
	t.Run("finds prefixed hidden input", func(t *testing.T) {
		doc := mustDoc(t, `<form>
			<input type="hidden" name="action" value="search">
			<input type="hidden" name="tok_f00ba4" value="deadbeef">
		</form>`)

		tok, err := ExtractToken(doc)
		if err != nil {
			t.Fatalf("ExtractToken: %v", err)
		}
		if tok.Name != "tok_f00ba4" || tok.Value != "deadbeef" {
			t.Errorf("token = %+v", tok)
		}
	})

	t.Run("first match wins", func(t *testing.T) {
		doc := mustDoc(t, `
			<input type="hidden" name="tok_first" value="one">
			<input type="hidden" name="tok_second" value="two">`)

		tok, err := ExtractToken(doc)
		if err != nil {
			t.Fatalf("ExtractToken: %v", err)
		}
		if tok.Name != "tok_first" {
			t.Errorf("Name = %q, want tok_first", tok.Name)
		}
	})

	t.Run("empty value is skipped", func(t *testing.T) {
		doc := mustDoc(t, `
			<input type="hidden" name="tok_empty" value="">
			<input type="hidden" name="tok_full" value="v">`)

		tok, err := ExtractToken(doc)
		if err != nil {
			t.Fatalf("ExtractToken: %v", err)
		}
		if tok.Name != "tok_full" {
			t.Errorf("Name = %q, want tok_full", tok.Name)
		}
	})

	t.Run("missing token errors", func(t *testing.T) {
		doc := mustDoc(t, `<input type="hidden" name="other" value="x">`)

		_, err := ExtractToken(doc)
		if KindOf(err) != KindTokenNotFound {
			t.Errorf("KindOf = %q, want %q", KindOf(err), KindTokenNotFound)
		}
	})

	t.Run("visible input with prefix is ignored", func(t *testing.T) {
		doc := mustDoc(t, `<input type="text" name="tok_visible" value="x">`)

		if _, err := ExtractToken(doc); err == nil {
			t.Error("expected error for page without hidden token")
		}
	})
}

func TestExtractCaptchaSession(t *testing.T) {
	t.Run("direct input", func(t *testing.T) {
		doc := mustDoc(t, `<input name="scid" value="abc-123">`)

		scid, err := ExtractCaptchaSession(doc)
		if err != nil {
			t.Fatalf("ExtractCaptchaSession: %v", err)
		}
		if scid != "abc-123" {
			t.Errorf("scid = %q, want abc-123", scid)
		}
	})

	t.Run("falls back to image URL", func(t *testing.T) {
		doc := mustDoc(t, `<img src="/case-status/?_siwp_captcha&id=img-77&ts=1">`)

		scid, err := ExtractCaptchaSession(doc)
		if err != nil {
			t.Fatalf("ExtractCaptchaSession: %v", err)
		}
		if scid != "img-77" {
			t.Errorf("scid = %q, want img-77", scid)
		}
	})

	t.Run("input takes priority over image", func(t *testing.T) {
		doc := mustDoc(t, `
			<input name="scid" value="from-input">
			<img src="/x?_siwp_captcha&id=from-img">`)

		scid, err := ExtractCaptchaSession(doc)
		if err != nil {
			t.Fatalf("ExtractCaptchaSession: %v", err)
		}
		if scid != "from-input" {
			t.Errorf("scid = %q, want from-input", scid)
		}
	})

	t.Run("unrelated images ignored", func(t *testing.T) {
		doc := mustDoc(t, `<img src="/logo.png">`)

		_, err := ExtractCaptchaSession(doc)
		if KindOf(err) != KindSessionNotFound {
			t.Errorf("KindOf = %q, want %q", KindOf(err), KindSessionNotFound)
		}
	})
}

func TestExtractCaseRecords(t *testing.T) {
	const origin = "https://court.example.org"

	t.Run("full row", func(t *testing.T) {
		doc := mustDoc(t, `<table><tr>
			<td>1</td>
			<td>2444/2023</td>
			<td>SLP(C) 12345/2023 Registered on 15-03-2023</td>
			<td>A Petitioner</td>
			<td>A Respondent</td>
			<td>Pending</td>
			<td><a href="/case-detail?id=9">View</a></td>
		</tr></table>`)

		records := ExtractCaseRecords(doc, origin)
		if len(records) != 1 {
			t.Fatalf("got %d records, want 1", len(records))
		}
		rec := records[0]
		if rec.SerialNumber != "1" {
			t.Errorf("SerialNumber = %q", rec.SerialNumber)
		}
		if rec.DiaryNumber != "2444/2023" {
			t.Errorf("DiaryNumber = %q", rec.DiaryNumber)
		}
		if rec.CaseNumber != "SLP(C) 12345/2023" {
			t.Errorf("CaseNumber = %q", rec.CaseNumber)
		}
		if rec.RegistrationDate != "15-03-2023" {
			t.Errorf("RegistrationDate = %q", rec.RegistrationDate)
		}
		if rec.Petitioner != "A Petitioner" {
			t.Errorf("Petitioner = %q", rec.Petitioner)
		}
		if rec.Status != "Pending" {
			t.Errorf("Status = %q", rec.Status)
		}
		if rec.DetailLink != origin+"/case-detail?id=9" {
			t.Errorf("DetailLink = %q", rec.DetailLink)
		}
	})

	t.Run("case number without registration date", func(t *testing.T) {
		doc := mustDoc(t, `<table><tr>
			<td>1</td><td>7/2020</td><td>Diary Only</td>
			<td>P</td><td>R</td><td>Disposed</td><td></td>
		</tr></table>`)

		records := ExtractCaseRecords(doc, origin)
		if len(records) != 1 {
			t.Fatalf("got %d records, want 1", len(records))
		}
		if records[0].CaseNumber != "Diary Only" {
			t.Errorf("CaseNumber = %q", records[0].CaseNumber)
		}
		if records[0].RegistrationDate != "" {
			t.Errorf("RegistrationDate = %q, want empty", records[0].RegistrationDate)
		}
	})

	t.Run("absolute detail link kept", func(t *testing.T) {
		doc := mustDoc(t, `<table><tr>
			<td>1</td><td>7/2020</td><td>C</td><td>P</td><td>R</td><td>S</td>
			<td><a href="https://other.example/detail">View</a></td>
		</tr></table>`)

		records := ExtractCaseRecords(doc, origin)
		if records[0].DetailLink != "https://other.example/detail" {
			t.Errorf("DetailLink = %q", records[0].DetailLink)
		}
	})

	t.Run("short rows skipped", func(t *testing.T) {
		doc := mustDoc(t, `<table>
			<tr><td colspan="7">No records header</td></tr>
			<tr><td>1</td><td>2/2021</td><td>C</td><td>P</td><td>R</td><td>S</td><td></td></tr>
		</table>`)

		records := ExtractCaseRecords(doc, origin)
		if len(records) != 1 {
			t.Fatalf("got %d records, want 1", len(records))
		}
	})

	t.Run("empty table yields empty slice", func(t *testing.T) {
		doc := mustDoc(t, `<table></table>`)

		records := ExtractCaseRecords(doc, origin)
		if records == nil {
			t.Fatal("records should be non-nil")
		}
		if len(records) != 0 {
			t.Errorf("got %d records, want 0", len(records))
		}
	})
}
