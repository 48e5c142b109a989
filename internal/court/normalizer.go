package court

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/courtlens/casestatus-api/internal/models"
)

// upstreamEnvelope is the AJAX endpoint's response shape. The data field
// holds an HTML fragment, not JSON.
type upstreamEnvelope struct {
	Success    bool            `json:"success"`
	Data       string          `json:"data"`
	Error      string          `json:"error"`
	Pagination json.RawMessage `json:"pagination"`
}

// Normalizer turns a raw upstream payload into the response body served to
// callers. In passthrough mode the payload is validated and forwarded
// verbatim; in normalize mode the embedded HTML table is parsed into
// structured records.
type Normalizer struct {
	normalize  bool
	baseOrigin string
}

func NewNormalizer(normalize bool, baseOrigin string) *Normalizer {
	return &Normalizer{normalize: normalize, baseOrigin: baseOrigin}
}

// Normalize validates a payload and renders the caller-facing data document.
// A payload that is not valid JSON is malformed; a success=false envelope is
// an upstream rejection, usually a wrong captcha answer.
func (n *Normalizer) Normalize(payload []byte) (json.RawMessage, error) {
	var env upstreamEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, Wrap(KindMalformedPayload, err, "upstream payload is not valid JSON")
	}
	if !env.Success {
		msg := strings.TrimSpace(env.Error)
		if msg == "" {
			msg = "upstream reported failure"
		}
		return nil, Errf(KindUpstreamRejected, "upstream rejected search: %s", msg)
	}

	if !n.normalize {
		return json.RawMessage(payload), nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(env.Data))
	if err != nil {
		return nil, Wrap(KindMalformedPayload, err, "upstream data fragment is not parseable HTML")
	}
	data := models.CaseData{
		Records:    ExtractCaseRecords(doc, n.baseOrigin),
		Pagination: env.Pagination,
	}
	out, err := json.Marshal(data)
	if err != nil {
		return nil, Wrap(KindMalformedPayload, err, "encoding normalized records")
	}
	return out, nil
}
