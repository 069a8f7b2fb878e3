package service

import (
	"net/mail"
	"strings"
)

// 一次性邮箱域名黑名单；购买前置校验，命中即拒绝
var disposableEmailDomains = map[string]struct{}{
	"10minutemail.com":    {},
	"10minutemail.net":    {},
	"dispostable.com":     {},
	"fakeinbox.com":       {},
	"getairmail.com":      {},
	"getnada.com":         {},
	"guerrillamail.com":   {},
	"guerrillamail.net":   {},
	"maildrop.cc":         {},
	"mailinator.com":      {},
	"mintemail.com":       {},
	"mohmal.com":          {},
	"sharklasers.com":     {},
	"spamgourmet.com":     {},
	"tempmail.com":        {},
	"tempmail.net":        {},
	"temp-mail.org":       {},
	"throwawaymail.com":   {},
	"trashmail.com":       {},
	"trashmail.de":        {},
	"yopmail.com":         {},
	"yopmail.fr":          {},
	"wegwerfmail.de":      {},
	"wegwerfemail.de":     {},
	"einrot.com":          {},
	"mail-temporaire.fr":  {},
	"jetable.org":         {},
	"spambox.us":          {},
	"mytrashmail.com":     {},
	"emailondeck.com":     {},
}

// validateCustomerEmail 规范化买家邮箱并检查一次性域名
func validateCustomerEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", ErrInvalidEmail
	}
	parsed, err := mail.ParseAddress(email)
	if err != nil {
		return "", ErrInvalidEmail
	}
	address := parsed.Address
	at := strings.LastIndex(address, "@")
	if at <= 0 || at == len(address)-1 {
		return "", ErrInvalidEmail
	}
	domain := address[at+1:]
	if _, blocked := disposableEmailDomains[domain]; blocked {
		return "", ErrEmailDisposable
	}
	return address, nil
}
