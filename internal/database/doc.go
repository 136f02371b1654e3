// Package database provides SQLite-based storage for crawl run history.
//
// This package implements the HistoryDB, which stores one record per
// completed crawl run: the seed URL, the collected URL set, and the
// filter statistics. Stored runs power the history listing and the
// run-to-run diff that shows how a site's structure changed.
//
// Design decision: Storage is SQLite via modernc.org/sqlite because:
// 1. The history is a single file under the XDG data directory
// 2. The pure-Go driver keeps cross-compilation trivial
// 3. A handful of runs per site needs no server-grade database
// 4. SQL makes the listing and latest-run queries one-liners
package database
