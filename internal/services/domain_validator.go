package services

import (
	"context"
	"net"
	"strings"
	"time"

	"chores-backend/pkg/logging"
)

// DomainValidator checks whether an email domain can receive mail by
// resolving its MX records
type DomainValidator struct {
	resolver *net.Resolver
	timeout  time.Duration
}

// NewDomainValidator creates a new domain validator using the default resolver
func NewDomainValidator() *DomainValidator {
	return &DomainValidator{
		resolver: net.DefaultResolver,
		timeout:  5 * time.Second,
	}
}

// HasMXRecords reports whether the domain resolves at least one MX record.
// A lookup failure means the domain has no valid mail servers, not a fault.
func (v *DomainValidator) HasMXRecords(ctx context.Context, domain string) bool {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	records, err := v.resolver.LookupMX(ctx, domain)
	if err != nil {
		logging.Infof("MX lookup failed for domain %s: %v", domain, err)
		return false
	}
	return len(records) > 0
}

// DomainOfEmail extracts the domain part of an email address
func DomainOfEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return email[at+1:]
}
