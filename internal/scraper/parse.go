package scraper

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	apperrors "ridership/internal/errors"
	"ridership/pkg/contracts/domain"
)

// ScheduleEntry is one home game found on a schedule page.
type ScheduleEntry struct {
	HomeTeam string
	// BoxScoreURL is empty when the game has no box score yet.
	BoxScoreURL string
}

// ParseSchedule returns the games of a schedule page whose home team is one
// of homeTeams. Box score links are resolved against base.
func ParseSchedule(page []byte, base *url.URL, homeTeams []string) ([]ScheduleEntry, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, apperrors.NewParsingError("failed to parse schedule page", err)
	}

	teams := make(map[string]bool, len(homeTeams))
	for _, t := range homeTeams {
		teams[t] = true
	}

	var entries []ScheduleEntry
	for _, game := range findAll(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.P && hasClass(n, "game")
	}) {
		links := findAll(game, isElement(atom.A))
		if len(links) < 2 {
			continue
		}
		// The second link is the team after '@'.
		team := textOf(links[1])
		if !teams[team] {
			continue
		}

		entry := ScheduleEntry{HomeTeam: team}
		last := links[len(links)-1]
		if textOf(last) == "Boxscore" {
			if href := attr(last, "href"); href != "" {
				ref, err := url.Parse(href)
				if err != nil {
					return nil, apperrors.NewParsingError("invalid box score link", err).WithContext("href", href)
				}
				entry.BoxScoreURL = base.ResolveReference(ref).String()
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ParseScorebox extracts the teams and the meta lines of a box score page.
// Meta lines that are absent leave their field empty.
func ParseScorebox(page []byte) (domain.GameRecord, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return domain.GameRecord{}, apperrors.NewParsingError("failed to parse box score page", err)
	}

	box := findFirst(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Div && hasClass(n, "scorebox")
	})
	if box == nil {
		return domain.GameRecord{}, apperrors.NewParsingError("box score page has no scorebox", nil)
	}
	strong := findAll(box, isElement(atom.Strong))
	if len(strong) < 2 {
		return domain.GameRecord{}, apperrors.NewParsingError(
			fmt.Sprintf("scorebox has %d team names, want 2", len(strong)), nil)
	}

	rec := domain.GameRecord{
		AwayTeam: textOf(strong[0]),
		HomeTeam: textOf(strong[1]),
	}

	meta := findFirst(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Div && hasClass(n, "scorebox_meta")
	})
	if meta == nil {
		return rec, nil
	}
	fields := []*string{&rec.Date, &rec.Time, &rec.Attendance, &rec.Venue, &rec.Duration}
	for i, div := range findAll(meta, isElement(atom.Div)) {
		if i >= len(fields) {
			break
		}
		*fields[i] = textOf(div)
	}
	return rec, nil
}

func isElement(a atom.Atom) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.DataAtom == a }
}

// findAll returns the element descendants of n matching match, in document
// order. n itself is not considered.
func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && match(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && match(c) {
			return c
		}
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// textOf returns the trimmed text content of n.
func textOf(n *html.Node) string {
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
	return strings.TrimSpace(b.String())
}
