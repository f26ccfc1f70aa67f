// Package models defines the records that flow through a playlist transfer.
//
// The package contains three groups of types:
//
// 1. Catalog records, produced by the source and destination clients
//   - [TrackDescriptor] : one source track's metadata, immutable once fetched
//   - [Candidate] : one destination search result
//
// 2. Resolution results, produced per descriptor
//   - [ResolvedTrack] : a descriptor paired with the candidate that won
//   - [UnresolvedTrack] : a descriptor no candidate was accepted for
//   - [AddFailure] : a resolved track the destination refused to add
//
// 3. Run results
//   - [TransferOutcome] : everything a run produced, in source order
//   - [RunRecord] : the summary row kept in the run journal
package models
