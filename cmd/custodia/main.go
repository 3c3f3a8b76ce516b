// Custodia is an evidentiary integrity and chain-of-custody ledger.
//
// It registers digital evidence by cryptographic fingerprint, records an
// append-only custody timeline per item, detects tampering by content
// re-verification, and scores admissibility from source reliability and
// custody completeness.
//
// Usage:
//
//	# Register an evidence file
//	custodia register photo.jpg --source cctv --uploader "officer-41"
//
//	# Re-verify evidence content against its stored fingerprint
//	custodia verify 9f8c2a1e-... photo.jpg --actor "analyst-7"
//
//	# Show the custody timeline
//	custodia timeline 9f8c2a1e-...
//
//	# Export an evidence dossier
//	custodia export 9f8c2a1e-... --format json --output dossier.json
//
//	# Corroborate a case across its evidence
//	custodia case corroborate case-2031
//
//	# Run the long-lived service (metrics, scheduled re-scoring,
//	# weight hot-reload)
//	custodia run
//
// For complete documentation, see: https://github.com/custodia-hq/custodia
package main

func main() {
	Execute()
}
