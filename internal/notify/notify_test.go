package notify

import "testing"

func TestNormalizeURLs(t *testing.T) {
	payload := Payload{TransactionID: "TXN-00042", StateCode: "TX"}

	urls := NormalizeURLs([]string{
		"  https://hooks.example.com/tms/{transaction_id}/ ",
		"https://hooks.example.com/tms/{transaction_id}",
		"https://hooks.example.com/states/{state_code}",
		"ftp://not-http.example.com",
		"not a url",
		"",
	}, payload)

	want := []string{
		"https://hooks.example.com/tms/TXN-00042",
		"https://hooks.example.com/states/TX",
	}
	if len(urls) != len(want) {
		t.Fatalf("expected %d urls, got %d: %v", len(want), len(urls), urls)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("url %d: expected %q, got %q", i, want[i], urls[i])
		}
	}
}

func TestNormalizeURLsEmpty(t *testing.T) {
	if got := NormalizeURLs(nil, Payload{}); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}
