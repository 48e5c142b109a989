package court

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/courtlens/casestatus-api/internal/models"
)

func TestNormalizer_Passthrough(t *testing.T) {
	n := NewNormalizer(false, "https://court.example.org")

	t.Run("valid payload forwarded verbatim", func(t *testing.T) {
		payload := []byte(`{"success":true,"data":"<table></table>","pagination":{"page":1}}`)

		out, err := n.Normalize(payload)
		if err != nil {
			t.Fatalf("Normalize: %v", err)
		}
		if string(out) != string(payload) {
			t.Errorf("payload was altered: %s", out)
		}
	})

	t.Run("rejection surfaces upstream error text", func(t *testing.T) {
		payload := []byte(`{"success":false,"error":"Invalid Captcha"}`)

		_, err := n.Normalize(payload)
		if KindOf(err) != KindUpstreamRejected {
			t.Fatalf("KindOf = %q, want %q", KindOf(err), KindUpstreamRejected)
		}
		if !strings.Contains(err.Error(), "Invalid Captcha") {
			t.Errorf("error should carry upstream message, got %q", err.Error())
		}
	})

	t.Run("rejection without message gets placeholder", func(t *testing.T) {
		_, err := n.Normalize([]byte(`{"success":false}`))
		if KindOf(err) != KindUpstreamRejected {
			t.Fatalf("KindOf = %q, want %q", KindOf(err), KindUpstreamRejected)
		}
		if !strings.Contains(err.Error(), "upstream reported failure") {
			t.Errorf("error = %q", err.Error())
		}
	})

	t.Run("non-JSON payload is malformed", func(t *testing.T) {
		_, err := n.Normalize([]byte(`<html>502 Bad Gateway</html>`))
		if KindOf(err) != KindMalformedPayload {
			t.Errorf("KindOf = %q, want %q", KindOf(err), KindMalformedPayload)
		}
	})
}

func TestNormalizer_Normalize(t *testing.T) {
	n := NewNormalizer(true, "https://court.example.org")

	t.Run("parses embedded table", func(t *testing.T) {
		fragment := `<table><tr>
			<td>1</td><td>2444/2023</td>
			<td>SLP(C) 99/2023 Registered on 01-02-2023</td>
			<td>P</td><td>R</td><td>Pending</td>
			<td><a href="/d?id=1">View</a></td>
		</tr></table>`
		env := map[string]any{"success": true, "data": fragment, "pagination": map[string]any{"total": 1}}
		payload, _ := json.Marshal(env)

		out, err := n.Normalize(payload)
		if err != nil {
			t.Fatalf("Normalize: %v", err)
		}

		var data models.CaseData
		if err := json.Unmarshal(out, &data); err != nil {
			t.Fatalf("decode output: %v", err)
		}
		if len(data.Records) != 1 {
			t.Fatalf("got %d records, want 1", len(data.Records))
		}
		if data.Records[0].CaseNumber != "SLP(C) 99/2023" {
			t.Errorf("CaseNumber = %q", data.Records[0].CaseNumber)
		}
		if string(data.Pagination) != `{"total":1}` {
			t.Errorf("Pagination = %s", data.Pagination)
		}
	})

	t.Run("empty result table yields empty records", func(t *testing.T) {
		payload := []byte(`{"success":true,"data":"<p>No records found</p>"}`)

		out, err := n.Normalize(payload)
		if err != nil {
			t.Fatalf("Normalize: %v", err)
		}
		var data models.CaseData
		if err := json.Unmarshal(out, &data); err != nil {
			t.Fatalf("decode output: %v", err)
		}
		if len(data.Records) != 0 {
			t.Errorf("got %d records, want 0", len(data.Records))
		}
		if !strings.Contains(string(out), `"records":[]`) {
			t.Errorf("records should encode as empty array, got %s", out)
		}
	})
}
