package court

import (
	"net/url"
	"strconv"
	"time"

	"github.com/courtlens/casestatus-api/internal/models"
)

// BuildSearchURL composes the AJAX search URL for one solved captcha cycle.
// Every parameter is required; the upstream rejects requests missing any of
// them.
func BuildSearchURL(ajaxBase string, key models.LookupKey, scid string, tok Token, answer string) string {
	q := url.Values{}
	q.Set("diary_no", key.DiaryNumber)
	q.Set("year", key.Year)
	q.Set("scid", scid)
	q.Set(tok.Name, tok.Value)
	q.Set("siwp_captcha_value", answer)
	q.Set("es_ajax_request", "1")
	q.Set("submit", "Search")
	q.Set("action", "get_case_status_diary_no")
	q.Set("language", "en")
	return ajaxBase + "?" + q.Encode()
}

// CaptchaImageURL composes the captcha image URL for a session. The ts
// parameter defeats intermediary caching.
func CaptchaImageURL(statusBase, scid string, now time.Time) string {
	q := url.Values{}
	q.Set("id", scid)
	q.Set("ts", strconv.FormatInt(now.UnixMilli(), 10))
	return statusBase + "?_siwp_captcha&" + q.Encode()
}
