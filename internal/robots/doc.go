// Package robots implements robots.txt compliance for the crawler.
//
// The policy covers exactly one domain per crawl: the robots.txt of the
// seed domain is fetched lazily on first use and the parsed rules are held
// for the rest of the crawl. Evaluation uses github.com/temoto/robotstxt,
// which implements the de facto robots exclusion standard including
// user-agent groups and Allow/Disallow precedence.
//
// # Fail open
//
// A crawl must never abort because robots.txt is unreachable or malformed.
// Any fetch or parse failure degrades the policy to allow-all for the
// remainder of the crawl; the failure is logged once. This mirrors common
// crawler practice: an absent robots.txt means no restrictions.
package robots
