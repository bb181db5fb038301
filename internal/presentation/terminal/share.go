package terminal

import (
	"errors"
	"net/url"
	"strings"
	"unicode"
)

var ErrNoPhoneNumber = errors.New("phone number has no digits")

type CountryCode struct {
	Code string
	Name string
}

// CountryCodes are the dialing prefixes offered for WhatsApp sharing.
var CountryCodes = []CountryCode{
	{Code: "+34", Name: "España"},
	{Code: "+240", Name: "Equatorial Guinea"},
	{Code: "+30", Name: "Grecia"},
	{Code: "+500", Name: "South Georgia and the S."},
	{Code: "+502", Name: "Guatemala"},
	{Code: "+592", Name: "Guyana"},
	{Code: "+852", Name: "Hong Kong"},
	{Code: "+504", Name: "Honduras"},
}

// SearchCountries matches the name case-insensitively or the code as typed.
func SearchCountries(query string) []CountryCode {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []CountryCode
	for _, c := range CountryCodes {
		if strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(c.Code, q) {
			out = append(out, c)
		}
	}
	return out
}

func ShareMessage(webURL string) string {
	return "I've requested a payment! Pay here: " + webURL
}

// WhatsAppLink builds a wa.me link that opens a chat with the share message.
func WhatsAppLink(prefix, phone, webURL string) (string, error) {
	digits := onlyDigits(prefix + phone)
	if onlyDigits(phone) == "" {
		return "", ErrNoPhoneNumber
	}
	return "https://wa.me/" + digits + "?text=" + url.QueryEscape(ShareMessage(webURL)), nil
}

func MailtoLink(to, webURL string) string {
	q := url.Values{}
	q.Set("subject", "Payment request")
	q.Set("body", ShareMessage(webURL))
	// mailto readers expect %20, not '+'.
	query := strings.ReplaceAll(q.Encode(), "+", "%20")
	return "mailto:" + to + "?" + query
}

func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
