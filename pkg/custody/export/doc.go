// Package export writes evidence dossiers — an evidence record together
// with its full custody timeline — to JSON or CSV for consumption by
// reporting layers. Exporting never mutates custody state; the service
// records the EXPORTED custody event after a successful write.
package export
