package solarnet

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const (
	snws2Scheme        = "SNWS2"
	snws2Algorithm     = "SNWS2-HMAC-SHA256"
	snws2Request       = "snws2_request"
	snws2SignedHeaders = "host;x-sn-date"

	// sha256 of an empty body
	emptyBodyHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
)

// signer produces SNWS2 Authorization headers for a token/secret pair.
type signer struct {
	token  string
	secret string
}

// sign adds the X-SN-Date and Authorization headers to a body-less request.
func (s signer) sign(req *http.Request, now time.Time) {
	now = now.UTC()
	date := now.Format(http.TimeFormat)
	req.Header.Set("X-SN-Date", date)

	canonical := canonicalRequest(req.Method, req.URL, req.URL.Host, date)
	sig := s.signature(now, canonical)

	req.Header.Set("Authorization", snws2Scheme+
		" Credential="+s.token+
		",SignedHeaders="+snws2SignedHeaders+
		",Signature="+sig)
}

func (s signer) signature(now time.Time, canonical string) string {
	sum := sha256.Sum256([]byte(canonical))
	toSign := snws2Algorithm + "\n" +
		now.Format("20060102T150405Z") + "\n" +
		hex.EncodeToString(sum[:])

	key := hmacSHA256([]byte(snws2Scheme+s.secret), now.Format("20060102"))
	key = hmacSHA256(key, snws2Request)
	return hex.EncodeToString(hmacSHA256(key, toSign))
}

func canonicalRequest(method string, u *url.URL, host, date string) string {
	return strings.Join([]string{
		method,
		u.EscapedPath(),
		canonicalQuery(u.RawQuery),
		"host:" + host,
		"x-sn-date:" + date,
		snws2SignedHeaders,
		emptyBodyHash,
	}, "\n")
}

// canonicalQuery sorts the parameters by key then value and re-encodes them.
// Unparseable input is signed as-is and left for the server to reject.
func canonicalQuery(raw string) string {
	if raw == "" {
		return ""
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return raw
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		vs := append([]string(nil), values[k]...)
		sort.Strings(vs)
		for _, v := range vs {
			parts = append(parts, uriEncode(k)+"="+uriEncode(v))
		}
	}
	return strings.Join(parts, "&")
}

func hmacSHA256(key []byte, data string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}
