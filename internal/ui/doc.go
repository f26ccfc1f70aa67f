// Package ui implements the terminal progress view for a transfer using bubbletea's Elm architecture.
//
// The TUI has two views:
//  1. [TransferView] : spinner, current state and step counter while the engine runs
//  2. [ResultView] : summary counts and a scrollable list of unresolved tracks
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the TransferEngine, providing non-blocking status reporting during transfers.
package ui
