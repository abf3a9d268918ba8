// Package scraper collects box scores from a baseball-reference style site.
//
// A season schedule page lists every game as a p.game element. Games whose
// home team is one of the venue's teams are followed to their box score page,
// whose scorebox block yields one domain.GameRecord. Pages are retrieved
// through a Fetcher: HTTPFetcher for plain requests with a polite request
// rate and 429 handling, or BrowserFetcher driving headless Chrome for sites
// that only render in a browser.
package scraper
