// Package notify posts stage-change notifications to configured webhook
// endpoints. Delivery is best-effort: failures are logged and never block or
// roll back the transition that triggered them.
package notify

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/db"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/domain"
)

const (
	defaultTimeout     = 500 * time.Millisecond
	defaultConcurrency = 4
)

// Payload is the webhook payload for stage changes.
type Payload struct {
	TransactionID   string `json:"transaction_id"`
	TransactionUUID string `json:"transaction_uuid"`
	Slug            string `json:"slug"`
	TxnType         string `json:"txn_type"`
	StateCode       string `json:"state_code"`
	FromStage       int    `json:"from_stage"`
	ToStage         int    `json:"to_stage"`
	ETag            int64  `json:"etag"`
}

// DispatchStageChange looks up the transaction and posts the stage-change
// payload to every configured URL.
func DispatchStageChange(database *db.DB, urls []string, txnUUID string, fromStage, toStage int) {
	if len(urls) == 0 {
		return
	}

	var txn domain.Transaction
	err := database.QueryRow(
		"SELECT id, uuid, slug, txn_type, state_code, etag FROM transactions WHERE uuid = ?",
		txnUUID,
	).Scan(&txn.ID, &txn.UUID, &txn.Slug, &txn.Type, &txn.StateCode, &txn.ETag)
	if err != nil {
		log.Printf("notify: lookup transaction %s failed: %v", txnUUID, err)
		return
	}

	payload := Payload{
		TransactionID:   txn.ID,
		TransactionUUID: txn.UUID,
		Slug:            txn.Slug,
		TxnType:         string(txn.Type),
		StateCode:       txn.StateCode,
		FromStage:       fromStage,
		ToStage:         toStage,
		ETag:            txn.ETag,
	}

	dispatchURLs(NormalizeURLs(urls, payload), payload)
}

// NormalizeURLs templates, trims, validates, and de-dupes webhook URLs.
// {transaction_id} and {state_code} placeholders are substituted from the
// payload.
func NormalizeURLs(urls []string, payload Payload) []string {
	if len(urls) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(urls))
	var normalized []string
	for _, raw := range urls {
		templated := applyTemplate(strings.TrimSpace(raw), payload)
		templated = strings.TrimRight(strings.TrimSpace(templated), "/")
		if templated == "" {
			continue
		}
		if !isValidURL(templated) {
			log.Printf("notify: skipping invalid url %q", templated)
			continue
		}
		if _, ok := seen[templated]; ok {
			continue
		}
		seen[templated] = struct{}{}
		normalized = append(normalized, templated)
	}
	return normalized
}

func applyTemplate(raw string, payload Payload) string {
	result := strings.ReplaceAll(raw, "{transaction_id}", payload.TransactionID)
	return strings.ReplaceAll(result, "{state_code}", payload.StateCode)
}

func isValidURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return parsed.Host != ""
}

func dispatchURLs(urls []string, payload Payload) {
	if len(urls) == 0 {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("notify: failed to encode payload: %v", err)
		return
	}

	client := &http.Client{Timeout: defaultTimeout}
	workers := defaultConcurrency
	if len(urls) < workers {
		workers = len(urls)
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for endpoint := range jobs {
				send(client, endpoint, body)
			}
		}()
	}

	for _, endpoint := range urls {
		jobs <- endpoint
	}
	close(jobs)
	wg.Wait()
}

func send(client *http.Client, endpoint string, body []byte) {
	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		log.Printf("notify: build request %q failed: %v", endpoint, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		log.Printf("notify: request to %q failed: %v", endpoint, err)
		return
	}
	_ = resp.Body.Close()
}
