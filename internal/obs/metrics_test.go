package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                                  "/",
		"/metrics":                          "/metrics",
		"/v1/payroll/abc/documents":         "/v1/payroll/:id/documents",
		"/v1/payroll/export":                "/v1/payroll/export",
		"/v1/payroll/documents":             "/v1/payroll/documents",
		"/v1/payroll/documents/bulk":        "/v1/payroll/documents/bulk",
		"/v1/documents/01ARZ3NDEKTSV/url":   "/v1/documents/:id/url",
		"/v1/documents/events":              "/v1/documents/events",
		"/v1/documents/abc/url?ttl=300":     "/v1/documents/:id/url",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
