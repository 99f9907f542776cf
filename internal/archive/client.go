// Package archive looks up and requests archive.ph snapshots. Paywalled
// domains on the allowlist get their articles fetched through a snapshot
// instead of the live page.
package archive

import (
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const snapshotDateLayout = "2 Jan 2006 15:04"

// archive.ph blocks obvious bots; rotate through common browser agents.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:109.0) Gecko/20100101 Firefox/121.0",
}

var (
	submitIDPattern = regexp.MustCompile(`name="submitid" value="([^"]+)"`)
	snapshotPattern = regexp.MustCompile(`(?s)<div[^>]*>((?:\d{1,2}\s+[A-Za-z]{3}\s+\d{4}\s+\d{1,2}:\d{2})|(?:\d{1,2}/\d{1,2}/\d{4}\s+\d{1,2}:\d{2}))</div></a></div></div><div[^>]*><a[^>]*href="([^"]+)"`)
)

type Client struct {
	domain     string
	httpClient *http.Client
}

func NewClient(domain string) *Client {
	if domain == "" {
		domain = "https://archive.ph"
	}
	return &Client{
		domain:     strings.TrimSuffix(domain, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// LatestSnapshot returns the newest snapshot URL for target, or "" when
// the URL has never been archived. When no snapshot matches the full URL,
// the search retries without query parameters.
func (c *Client) LatestSnapshot(target string) (string, error) {
	snapshots, err := c.search(target)
	if err != nil {
		return "", err
	}
	if len(snapshots) == 0 {
		stripped, ok := stripQuery(target)
		if ok {
			if snapshots, err = c.search(stripped); err != nil {
				return "", err
			}
		}
	}

	var latestURL string
	var latestDate time.Time
	for _, snap := range snapshots {
		date, err := time.Parse(snapshotDateLayout, snap.date)
		if err != nil {
			continue
		}
		if latestURL == "" || date.After(latestDate) {
			latestURL = snap.url
			latestDate = date
		}
	}
	return latestURL, nil
}

// RequestSnapshot asks archive.ph to archive target without waiting for
// the archiving to finish. Used fire-and-forget when no snapshot exists
// yet; the next poll will find the finished snapshot.
func (c *Client) RequestSnapshot(target string) error {
	agent := userAgents[rand.Intn(len(userAgents))]

	req, err := http.NewRequest(http.MethodGet, c.domain, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", agent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach archive service: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return err
	}

	match := submitIDPattern.FindSubmatch(body)
	if match == nil {
		return fmt.Errorf("could not find archive submission token")
	}

	form := url.Values{
		"url":      {target},
		"submitid": {string(match[1])},
	}
	submitReq, err := http.NewRequest(http.MethodPost, c.domain+"/submit/", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	submitReq.Header.Set("User-Agent", agent)
	submitReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	// The submit response redirects to the snapshot (or its WIP page);
	// there is no need to follow it.
	noRedirect := *c.httpClient
	noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	submitResp, err := noRedirect.Do(submitReq)
	if err != nil {
		return fmt.Errorf("failed to submit archive request: %w", err)
	}
	submitResp.Body.Close()
	return nil
}

type snapshot struct {
	date string
	url  string
}

func (c *Client) search(target string) ([]snapshot, error) {
	req, err := http.NewRequest(http.MethodGet, c.domain+"/search/?q="+url.QueryEscape(target), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgents[rand.Intn(len(userAgents))])

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search archive: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("archive search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var snapshots []snapshot
	for _, match := range snapshotPattern.FindAllStringSubmatch(string(body), -1) {
		snapshots = append(snapshots, snapshot{
			date: strings.TrimSpace(match[1]),
			url:  match[2],
		})
	}
	return snapshots, nil
}

func stripQuery(target string) (string, bool) {
	parsed, err := url.Parse(target)
	if err != nil || parsed.RawQuery == "" {
		return "", false
	}
	parsed.RawQuery = ""
	return parsed.String(), true
}
