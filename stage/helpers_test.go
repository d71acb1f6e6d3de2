package stage_test

import (
	"context"
	"net"
)

// fakeResolver maps names to canned answers for both lookup kinds.
// A name missing from the maps yields a not-found DNS error.
type fakeResolver struct {
	mx    map[string][]*net.MX
	hosts map[string][]string
	// errs overrides a specific name with an error for either lookup.
	errs map[string]error
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		mx:    make(map[string][]*net.MX),
		hosts: make(map[string][]string),
		errs:  make(map[string]error),
	}
}

func (r *fakeResolver) LookupMX(_ context.Context, domain string) ([]*net.MX, error) {
	if err, ok := r.errs[domain]; ok {
		return nil, err
	}
	if records, ok := r.mx[domain]; ok {
		return records, nil
	}
	return nil, notFound(domain)
}

func (r *fakeResolver) LookupHost(_ context.Context, host string) ([]string, error) {
	if err, ok := r.errs[host]; ok {
		return nil, err
	}
	if addrs, ok := r.hosts[host]; ok {
		return addrs, nil
	}
	return nil, notFound(host)
}

func notFound(name string) error {
	return &net.DNSError{Err: "no such host", Name: name, IsNotFound: true}
}
