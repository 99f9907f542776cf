// Package extract turns a bookmark's article into speakable text. Two
// sources compete: the page fetched live from the article URL and the
// HTML the bookmark service captured at crawl time. Whichever yields more
// words wins, and the longer title/description wins likewise.
package extract

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"bookmark-podcaster/internal/hoarder"
)

// Result is the extracted content for one bookmark. An empty Text means
// nothing speakable could be resolved and the bookmark must be skipped.
type Result struct {
	Title       string
	Description string
	Text        string
	Authors     []string
}

type Extractor struct {
	httpClient *http.Client
}

func New() *Extractor {
	return &Extractor{httpClient: &http.Client{Timeout: 60 * time.Second}}
}

// Extract resolves content for a bookmark. fetchURL is the page to fetch,
// which may differ from the bookmark URL when an archive snapshot was
// substituted. Fetch failures fall back to the stored HTML.
func (e *Extractor) Extract(bookmark hoarder.Bookmark, fetchURL string) Result {
	page := e.fetchPage(fetchURL)

	storedText := ""
	if bookmark.Content.HTMLContent != nil {
		storedText = SpeechText(*bookmark.Content.HTMLContent)
	}

	result := Result{Authors: page.authors}

	if wordCount(storedText) > wordCount(page.text) {
		result.Text = storedText
	} else {
		result.Text = page.text
	}

	result.Title = longer(bookmark.Content.Title, page.title)
	result.Description = longer(bookmark.Content.Description, page.description)
	return result
}

type pageContent struct {
	title       string
	description string
	text        string
	authors     []string
}

func (e *Extractor) fetchPage(pageURL string) pageContent {
	if pageURL == "" {
		return pageContent{}
	}

	resp, err := e.httpClient.Get(pageURL)
	if err != nil {
		log.Printf("Error fetching article %s: %v", pageURL, err)
		return pageContent{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Error fetching article %s: status %d", pageURL, resp.StatusCode)
		return pageContent{}
	}

	// Article pages are uncontrolled third-party content; cap the read.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		log.Printf("Error reading article %s: %v", pageURL, err)
		return pageContent{}
	}
	return parsePage(string(body))
}

func parsePage(src string) pageContent {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return pageContent{}
	}

	var page pageContent
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if page.title == "" {
					page.title = strings.TrimSpace(textContent(n))
				}
			case "meta":
				name := strings.ToLower(attr(n, "name"))
				property := strings.ToLower(attr(n, "property"))
				content := strings.TrimSpace(attr(n, "content"))
				if content == "" {
					break
				}
				switch {
				case name == "description" || property == "og:description":
					if len(content) > len(page.description) {
						page.description = content
					}
				case name == "author" || property == "article:author":
					if !strings.HasPrefix(content, "http") {
						page.authors = append(page.authors, content)
					}
				}
			case "body":
				page.text = speechFromNode(n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(doc)
	return page
}

// SpeechText converts article HTML into text with spoken cues: top-level
// headings read as "Headline:", deeper ones as "Section:", list items as
// bullets.
func SpeechText(src string) string {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return ""
	}
	return speechFromNode(doc)
}

var skipTags = map[string]bool{
	"script":   true,
	"style":    true,
	"head":     true,
	"noscript": true,
	"iframe":   true,
	"form":     true,
	"nav":      true,
	"img":      true,
	"svg":      true,
	"figure":   true,
	"footer":   true,
	"aside":    true,
}

func speechFromNode(root *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode {
			if skipTags[n.Data] {
				return
			}
			switch n.Data {
			case "h1":
				fmt.Fprintf(&b, "\nHeadline: %s\n", strings.TrimSpace(textContent(n)))
				return
			case "h2", "h3", "h4", "h5", "h6":
				fmt.Fprintf(&b, "\nSection: %s\n", strings.TrimSpace(textContent(n)))
				return
			case "li":
				b.WriteString("\n* ")
			case "p", "div", "section", "article", "blockquote", "tr", "br", "hr":
				b.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return collapseWhitespace(b.String())
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

var (
	spaceRuns   = regexp.MustCompile(`[ \t]+`)
	newlineRuns = regexp.MustCompile(`\n{3,}`)
)

func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRuns.ReplaceAllString(line, " "))
	}
	joined := newlineRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(joined)
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

func longer(a, b string) string {
	if len(b) > len(a) {
		return b
	}
	return a
}
