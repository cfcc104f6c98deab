// Package domain models citizen incident reports and the draft a reporter
// fills in before submitting one.
//
// # Report Lifecycle
//
// A report starts life as a [Draft] owned by a single wizard. The wizard walks
// the reporter through three steps:
//
//	location  →  details  →  preview  →  (submitted)
//
// Forward moves are gated on required fields; backward moves never touch
// field values. Finalizing a draft in the preview step produces an immutable
// [Submission], which the submission sink persists as a [Report] with status
// "pending".
//
// # Postal Codes
//
// Postal codes are Brazilian CEPs: eight digits, usually written "20000-000".
// [NormalizePostalCode] strips everything but digits and keeps at most eight.
// A complete code can be resolved to an [Address] through an [AddressResolver];
// the resolved address replaces the draft's free-text address as
//
//	"<street>, <neighborhood> - <municipality>, <region>"
//
// Resolution never moves the draft's coordinates: the address text and the
// map pin are edited independently and can disagree.
//
// # Coordinates
//
// Coordinates are WGS-84 latitude/longitude pairs. A fresh draft is pinned to
// [DefaultCoordinates], the Rio de Janeiro city centre, so a draft always
// carries a usable pair.
//
// # Categories
//
// The category catalog is a fixed table embedded in the binary (catalog.yaml)
// and parsed once on first use. See [Categories] and [LookupCategory].
package domain
