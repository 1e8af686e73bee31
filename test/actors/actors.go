package actors

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"statuslookup/application"
	"statuslookup/wizard"
)

// Statuses are the values the Writer may assign to its own rows.
var Statuses = []string{"Under Review", "Approved", "Additional Information Required"}

type apiRecord struct {
	SubmissionID string `json:"submissionId"`
	Status       string `json:"status"`
	LastUpdated  string `json:"lastUpdated"`
}

// Looker hammers the JSON endpoint with seeded ids and fails on any answer
// that does not match the seed exactly. 5xx answers are tolerated because
// chaos may kill the backend mid-query.
func Looker(ctx context.Context, client *http.Client, baseURL string, seeds []application.Record, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		want := seeds[rand.Intn(len(seeds))]

		code, got, err := getRecord(ctx, client, baseURL, want.SubmissionID)
		if err != nil {
			return err
		}
		switch {
		case code == http.StatusOK:
			if got.SubmissionID != want.SubmissionID || got.Status != want.Status || got.LastUpdated != want.LastUpdatedDate() {
				return fmt.Errorf("looker: %s returned %+v", want.SubmissionID, got)
			}
		case code >= 500:
		default:
			return fmt.Errorf("looker: %s returned HTTP %d", want.SubmissionID, code)
		}
		time.Sleep(time.Duration(5+rand.Intn(15)) * time.Millisecond)
	}
}

// Prober asks for ids that never exist and fails if any of them resolves.
func Prober(ctx context.Context, client *http.Client, baseURL, runID string, stop <-chan struct{}) error {
	for n := 0; ; n++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		id := fmt.Sprintf("missing-%s-%d", runID, n)

		code, got, err := getRecord(ctx, client, baseURL, id)
		if err != nil {
			return err
		}
		if code == http.StatusOK {
			return fmt.Errorf("prober: unknown id %s resolved to %+v", id, got)
		}
		if code != http.StatusNotFound && code < 500 {
			return fmt.Errorf("prober: %s returned HTTP %d", id, code)
		}
		time.Sleep(time.Duration(10+rand.Intn(20)) * time.Millisecond)
	}
}

// Writer keeps rewriting a private set of ids so readers race with updates.
func Writer(ctx context.Context, repo *application.PGRepository, ids []string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		rec := application.Record{
			SubmissionID: ids[rand.Intn(len(ids))],
			Status:       Statuses[rand.Intn(len(Statuses))],
			LastUpdated:  time.Date(2023, time.August, 1+rand.Intn(28), 0, 0, 0, 0, time.UTC),
		}
		// connection kills surface here; the oracles judge the table afterwards
		_ = repo.Upsert(ctx, rec)
		time.Sleep(time.Duration(15+rand.Intn(30)) * time.Millisecond)
	}
}

// Visitor walks the HTML wizard with its own cookie jar: start, look up a
// seeded id, then check another.
func Visitor(ctx context.Context, baseURL string, seeds []application.Record, stop <-chan struct{}) error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	client := &http.Client{Jar: jar, Timeout: 10 * time.Second}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		want := seeds[rand.Intn(len(seeds))]

		if _, err := post(ctx, client, baseURL+"/start", nil); err != nil {
			return err
		}
		body, err := post(ctx, client, baseURL+"/lookup", url.Values{"submission_id": {want.SubmissionID}})
		if err != nil {
			return err
		}
		// an unavailable message is acceptable under chaos, a wrong status is not
		switch {
		case strings.Contains(body, `data-step="view_status"`):
			if !strings.Contains(body, want.Status) {
				return fmt.Errorf("visitor: page for %s lacks status %q", want.SubmissionID, want.Status)
			}
		case !strings.Contains(body, html.EscapeString(wizard.UnavailableMessage)):
			return fmt.Errorf("visitor: lookup of %s neither showed a status nor the unavailable message", want.SubmissionID)
		}
		if _, err := post(ctx, client, baseURL+"/reset", nil); err != nil {
			return err
		}
		time.Sleep(time.Duration(20+rand.Intn(40)) * time.Millisecond)
	}
}

func getRecord(ctx context.Context, client *http.Client, baseURL, id string) (int, apiRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/applications/"+url.PathEscape(id), nil)
	if err != nil {
		return 0, apiRecord{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, apiRecord{}, ctx.Err()
		}
		return 0, apiRecord{}, fmt.Errorf("get %s: %w", id, err)
	}
	defer resp.Body.Close()

	var rec apiRecord
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
			return 0, apiRecord{}, fmt.Errorf("decode %s: %w", id, err)
		}
	}
	return resp.StatusCode, rec, nil
}

func post(ctx context.Context, client *http.Client, target string, form url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("post %s: %w", target, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
